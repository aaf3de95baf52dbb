package transport

// ColumnInput is one column in a replace request.
type ColumnInput struct {
	Key         string `json:"key" validate:"required,stagekey"`
	Title       string `json:"title" validate:"required,max=60"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Probability *int   `json:"probability" validate:"required,min=0,max=100"`
}

type ReplaceColumnsRequest struct {
	Columns []ColumnInput `json:"columns" validate:"required,min=1,dive"`
}

type ColumnResponse struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Color       string `json:"color"`
	Probability int    `json:"probability"`
	Position    int    `json:"position"`
	Terminal    bool   `json:"terminal"`
}

type ColumnsResponse struct {
	Columns []ColumnResponse `json:"columns"`
}

type ForecastColumn struct {
	Key           string  `json:"key"`
	Title         string  `json:"title"`
	Probability   int     `json:"probability"`
	Count         int     `json:"count"`
	TotalValue    float64 `json:"totalValue"`
	WeightedValue float64 `json:"weightedValue"`
}

type ForecastResponse struct {
	Columns       []ForecastColumn `json:"columns"`
	TotalCount    int              `json:"totalCount"`
	TotalValue    float64          `json:"totalValue"`
	OpenValue     float64          `json:"openValue"`
	WeightedValue float64          `json:"weightedValue"`
}

// StageInUse describes a column that cannot be removed.
type StageInUse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
