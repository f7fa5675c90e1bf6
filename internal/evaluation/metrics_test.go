package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRecallAtK_AllRelevantFound(t *testing.T) {
	relevant := []string{"rec_1", "rec_2", "rec_3"}
	retrieved := []string{"rec_1", "rec_2", "rec_3", "rec_4", "rec_5"}
	if got := RecallAtK(relevant, retrieved, 5); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestRecallAtK_PartialRecall(t *testing.T) {
	relevant := []string{"rec_1", "rec_2", "rec_3", "rec_4"}
	retrieved := []string{"rec_1", "rec_2", "db_9", "db_8", "db_7"}
	if got := RecallAtK(relevant, retrieved, 5); !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestRecallAtK_EmptyRetrieved(t *testing.T) {
	if got := RecallAtK([]string{"rec_1"}, nil, 5); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestRecallAtK_NoRelevantDocs(t *testing.T) {
	// Recall is undefined without relevant docs; we return 0.
	if got := RecallAtK(nil, []string{"rec_1"}, 5); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestRecallAtK_RespectsCutoff(t *testing.T) {
	relevant := []string{"rec_1", "rec_2", "rec_3"}
	retrieved := []string{"rec_1", "rec_2", "x", "y", "rec_3"}
	// rec_3 sits past the cutoff
	if got := RecallAtK(relevant, retrieved, 3); !almostEqual(got, 2.0/3.0) {
		t.Errorf("expected 2/3, got %f", got)
	}
}

func TestMRRAtK_FirstPosition(t *testing.T) {
	if got := MRRAtK([]string{"rec_1"}, []string{"rec_1", "x", "y"}, 5); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestMRRAtK_ThirdPosition(t *testing.T) {
	if got := MRRAtK([]string{"rec_9"}, []string{"x", "y", "rec_9"}, 5); !almostEqual(got, 1.0/3.0) {
		t.Errorf("expected 1/3, got %f", got)
	}
}

func TestMRRAtK_NotFoundWithinK(t *testing.T) {
	if got := MRRAtK([]string{"rec_9"}, []string{"x", "y", "z", "rec_9"}, 3); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestMRRAtK_EmptyInputs(t *testing.T) {
	if got := MRRAtK(nil, []string{"x"}, 5); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
	if got := MRRAtK([]string{"x"}, nil, 5); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}
