package domain

import (
	"errors"
	"testing"
)

func TestTargetDimension(t *testing.T) {
	cases := []struct {
		sizeClass string
		want      int
	}{
		{SizeClassSmall, 300},
		{SizeClassMedium, 408},
		{SizeClassLarge, 618},
		{"  Medium ", 408},
	}
	for _, tc := range cases {
		got, err := TargetDimension(tc.sizeClass)
		if err != nil {
			t.Fatalf("TargetDimension(%q) returned error: %v", tc.sizeClass, err)
		}
		if got != tc.want {
			t.Fatalf("TargetDimension(%q) = %d, want %d", tc.sizeClass, got, tc.want)
		}
		if got < 300 || got > 618 {
			t.Fatalf("TargetDimension(%q) = %d outside iOS range", tc.sizeClass, got)
		}
	}
}

func TestTargetDimensionRejectsUnknownClass(t *testing.T) {
	_, err := TargetDimension("jumbo")
	if !errors.Is(err, ErrInvalidSizeClass) {
		t.Fatalf("expected ErrInvalidSizeClass, got %v", err)
	}
}

func TestGenerateRequestValidate(t *testing.T) {
	valid := GenerateRequest{
		SourceDir: "source-repo",
		OutputDir: "output",
		PackName:  "BufoStickers",
		SizeClass: SizeClassMedium,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	empty := GenerateRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	badSize := valid
	badSize.SizeClass = "huge"
	if err := badSize.Validate(); !errors.Is(err, ErrInvalidSizeClass) {
		t.Fatalf("expected ErrInvalidSizeClass, got %v", err)
	}

	badFit := valid
	badFit.FitMode = "stretch"
	if err := badFit.Validate(); !errors.Is(err, ErrInvalidFitMode) {
		t.Fatalf("expected ErrInvalidFitMode, got %v", err)
	}

	badGroup := valid
	badGroup.GroupBy = "color"
	if err := badGroup.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported group_by")
	}
}
