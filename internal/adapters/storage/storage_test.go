package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload("application/pdf", 1024, 4096); err != nil {
		t.Fatalf("expected pdf to be accepted, got %v", err)
	}
	if err := ValidateUpload("Application/PDF; charset=binary", 1024, 4096); err != nil {
		t.Fatalf("expected parameters to be ignored, got %v", err)
	}
	if err := ValidateUpload("application/x-msdownload", 10, 4096); !errors.Is(err, ErrContentTypeNotAllowed) {
		t.Fatalf("expected content type rejection, got %v", err)
	}
	if err := ValidateUpload("image/png", 8192, 4096); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if err := ValidateUpload("image/png", 0, 4096); err == nil {
		t.Fatalf("expected empty file to be rejected")
	}
}

func TestBuildFileKeyStaysInFolder(t *testing.T) {
	key := BuildFileKey("org/lead", "../../etc/passwd.pdf")
	if !strings.HasPrefix(key, "org/lead/passwd_") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("unexpected key %q", key)
	}

	windows := BuildFileKey("org/lead", `C:\Users\me\offer.docx`)
	if !strings.HasPrefix(windows, "org/lead/offer_") {
		t.Fatalf("unexpected key %q", windows)
	}

	if BuildFileKey("org/lead", "a.pdf") == BuildFileKey("org/lead", "a.pdf") {
		t.Fatalf("expected unique keys for the same file name")
	}
}
