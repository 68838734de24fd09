package photoedit_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
)

func batchWithBadSecond() []domain.PhotoFile {
	return []domain.PhotoFile{
		jpeg("one.jpg"),
		{Name: "two.pdf", ContentType: "application/pdf", Data: make([]byte, photoedit.MaxPhotoSize+1)},
		{Name: "three.png", ContentType: "image/png", Data: []byte("png")},
	}
}

func TestValidate_AppendMode(t *testing.T) {
	v := photoedit.Validate(batchWithBadSecond(), photoedit.ModeAppend)

	if len(v.Accepted) != 2 || v.Accepted[0].Name != "one.jpg" || v.Accepted[1].Name != "three.png" {
		t.Fatalf("expected [one.jpg three.png], got %+v", v.Accepted)
	}
	if len(v.Rejected) != 1 || v.Rejected[0].FileName != "two.pdf" {
		t.Fatalf("expected two.pdf rejected, got %+v", v.Rejected)
	}
	if v.Note() != "" {
		t.Fatalf("append mode should not note ignored files, got %q", v.Note())
	}
}

func TestValidate_ReplaceModeUsesFirst(t *testing.T) {
	v := photoedit.Validate(batchWithBadSecond(), photoedit.ModeReplace)

	if len(v.Accepted) != 1 || v.Accepted[0].Name != "one.jpg" {
		t.Fatalf("expected [one.jpg], got %+v", v.Accepted)
	}
	if v.Ignored != 1 {
		t.Fatalf("expected 1 ignored, got %d", v.Ignored)
	}
	if !strings.Contains(v.Note(), "1 extra file was ignored") {
		t.Fatalf("unexpected note %q", v.Note())
	}
	if len(v.Rejected) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(v.Rejected))
	}
}

func TestValidate_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		file   domain.PhotoFile
		reason string
	}{
		{"no type", domain.PhotoFile{Name: "a"}, "not an image"},
		{"text", domain.PhotoFile{Name: "a", ContentType: "text/plain"}, "not an image (text/plain)"},
		{"too large", domain.PhotoFile{Name: "a", ContentType: "image/jpeg", Data: make([]byte, 6<<20)}, "6.0 MiB exceeds the 5.0 MiB limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := photoedit.Validate([]domain.PhotoFile{tt.file}, photoedit.ModeAppend)
			if len(v.Rejected) != 1 {
				t.Fatalf("expected rejection, got %+v", v)
			}
			if v.Rejected[0].Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, v.Rejected[0].Reason)
			}
		})
	}
}

func TestValidate_AcceptsExactLimitAndParams(t *testing.T) {
	files := []domain.PhotoFile{
		{Name: "edge.jpg", ContentType: "image/jpeg", Data: make([]byte, photoedit.MaxPhotoSize)},
		{Name: "param.png", ContentType: "image/png; charset=binary", Data: []byte("x")},
	}
	v := photoedit.Validate(files, photoedit.ModeAppend)
	if len(v.Accepted) != 2 {
		t.Fatalf("expected both files accepted, got rejections %+v", v.Rejected)
	}
}

func TestValidation_SummaryIsBounded(t *testing.T) {
	var files []domain.PhotoFile
	for i := range 200 {
		files = append(files, domain.PhotoFile{Name: fmt.Sprintf("bad-%d.txt", i), ContentType: "text/plain"})
	}
	v := photoedit.Validate(files, photoedit.ModeAppend)

	lines, more := v.RejectionLines(photoedit.DefaultSummaryLimit)
	if len(lines) != photoedit.DefaultSummaryLimit || more != 195 {
		t.Fatalf("expected 5 lines and 195 more, got %d and %d", len(lines), more)
	}

	summary := v.Summary(photoedit.DefaultSummaryLimit)
	if !strings.HasPrefix(summary, "200 files were rejected: bad-0.txt") {
		t.Fatalf("unexpected summary %q", summary)
	}
	if !strings.HasSuffix(summary, "; and 195 more.") {
		t.Fatalf("expected collapsed remainder, got %q", summary)
	}
	if strings.Contains(summary, "bad-5.txt") {
		t.Fatal("summary should not name files past the limit")
	}
}

func TestValidation_SummaryEmpty(t *testing.T) {
	v := photoedit.Validate([]domain.PhotoFile{jpeg("ok")}, photoedit.ModeAppend)
	if s := v.Summary(5); s != "" {
		t.Fatalf("expected empty summary, got %q", s)
	}
}

func TestValidation_SummarySingle(t *testing.T) {
	v := photoedit.Validate([]domain.PhotoFile{{Name: "x.gif", ContentType: "video/mp4"}}, photoedit.ModeAppend)
	want := "1 file was rejected: x.gif: not an image (video/mp4)."
	if s := v.Summary(5); s != want {
		t.Fatalf("expected %q, got %q", want, s)
	}
}
