package management

import (
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/sanitize"
)

func ToLeadResponse(l repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:               l.ID,
		Name:             l.Name,
		Company:          l.Company,
		Email:            l.Email,
		Phone:            l.Phone,
		Value:            l.Value,
		Stage:            l.Stage,
		Owner:            transport.Owner(l.OwnerID),
		Probability:      l.Probability,
		Source:           l.Source,
		Tags:             nonNilStrings(l.Tags),
		ProductInterests: nonNilStrings(l.ProductInterests),
		LastActivity:     l.LastActivity,
		LastActivityAt:   l.LastActivityAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	if l.BANT != nil {
		resp.BANT = &transport.BANTResponse{
			Budget:    l.BANT.Budget,
			Authority: l.BANT.Authority,
			Need:      l.BANT.Need,
			Timeline:  l.BANT.Timeline,
		}
	}
	if l.WonData != nil {
		resp.WonData = &transport.WonDataResponse{
			Products:     l.WonData.Products,
			FinalPrice:   l.WonData.FinalPrice,
			ClosingNotes: l.WonData.ClosingNotes,
			ClosedAt:     l.WonData.ClosedAt,
		}
	}
	return resp
}

func ToLeadDetailResponse(l repository.Lead, notes []repository.Note, history []repository.HistoryEvent, docs []repository.Document) transport.LeadDetailResponse {
	resp := transport.LeadDetailResponse{
		LeadResponse: ToLeadResponse(l),
		Notes:        make([]transport.NoteResponse, 0, len(notes)),
		History:      make([]transport.HistoryResponse, 0, len(history)),
		Documents:    make([]transport.DocumentResponse, 0, len(docs)),
	}
	for _, n := range notes {
		resp.Notes = append(resp.Notes, ToNoteResponse(n))
	}
	for _, h := range history {
		resp.History = append(resp.History, ToHistoryResponse(h))
	}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, ToDocumentResponse(d))
	}
	return resp
}

func ToNoteResponse(n repository.Note) transport.NoteResponse {
	return transport.NoteResponse{
		ID:        n.ID,
		LeadID:    n.LeadID,
		AuthorID:  n.AuthorID,
		Type:      n.Type,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	}
}

func ToHistoryResponse(h repository.HistoryEvent) transport.HistoryResponse {
	return transport.HistoryResponse{
		ID:         h.ID,
		LeadID:     h.LeadID,
		Channel:    h.Channel,
		Direction:  h.Direction,
		Summary:    h.Summary,
		AuthorID:   h.AuthorID,
		OccurredAt: h.OccurredAt,
	}
}

func ToDocumentResponse(d repository.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:          d.ID,
		LeadID:      d.LeadID,
		Name:        d.Name,
		FileKey:     d.FileKey,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
	}
}

func toConflictResponse(info conflict.Info) *transport.ConflictResponse {
	return &transport.ConflictResponse{
		Outcome:          info.Outcome,
		MatchedOn:        info.MatchedOn,
		ExistingLeadID:   info.ExistingLeadID,
		ExistingLeadName: info.ExistingLeadName,
		ExistingOwner:    transport.Owner(info.ExistingOwner),
	}
}

func toBANT(in *transport.BANTInput) *repository.BANT {
	if in == nil {
		return nil
	}
	return &repository.BANT{
		Budget:    sanitize.Text(in.Budget),
		Authority: sanitize.Text(in.Authority),
		Need:      sanitize.Text(in.Need),
		Timeline:  sanitize.Text(in.Timeline),
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
