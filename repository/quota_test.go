package repository

import (
	"testing"

	"github.com/google/uuid"
)

func TestAdmitUnderCeiling(t *testing.T) {
	if !Admit(10, 40, 100) {
		t.Fatal("upload that fits under the ceiling must be admitted")
	}
}

func TestAdmitExactFit(t *testing.T) {
	if !Admit(60, 40, 100) {
		t.Fatal("upload that lands exactly on the ceiling must be admitted")
	}
}

func TestAdmitOverCeiling(t *testing.T) {
	if Admit(60, 41, 100) {
		t.Fatal("upload that exceeds the ceiling must be denied")
	}
}

func TestAdmitZeroDelta(t *testing.T) {
	if !Admit(100, 0, 100) {
		t.Fatal("zero-byte delta at the ceiling must still be admitted")
	}
}

func TestRecomputeMappingIsIdempotent(t *testing.T) {
	tenantID := uuid.New()
	usage := TenantUsage{TotalBytes: 700, HotBytes: 500, ColdBytes: 200, FileCount: 9}

	first := recordFromUsage(tenantID, usage)
	second := recordFromUsage(tenantID, usage)

	if first != second {
		t.Fatalf("same aggregate must map to the same row: %+v vs %+v", first, second)
	}
	if first.TotalBytes != 700 || first.HotBytes != 500 || first.ColdBytes != 200 || first.FileCount != 9 {
		t.Fatalf("aggregate not carried onto the row: %+v", first)
	}
}
