package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	data1 := []byte{1, 2, 3}
	scratch.Output(data1)

	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	result := scratch.Result()
	if len(result) != 3 {
		t.Errorf("Expected 3 bytes in result, got %d", len(result))
	}

	data2 := []byte{4, 5}
	scratch.Output(data2)

	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	// Test DataSince
	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2) failed: expected [3 4 5], got %v", since)
	}
	if scratch.DataSince(6) != nil {
		t.Errorf("DataSince past the end should be nil")
	}

	// Test Reset
	scratch.Reset()
	if scratch.CurPosition() != 0 {
		t.Errorf("After reset, expected position 0, got %d", scratch.CurPosition())
	}
}

func TestScratchOutputGrows(t *testing.T) {
	scratch := NewScratchOutput()
	for i := 0; i < 100; i++ {
		scratch.Output([]byte{byte(i)})
	}
	if scratch.CurPosition() != 100 {
		t.Errorf("Expected position 100, got %d", scratch.CurPosition())
	}
	if scratch.Result()[99] != 99 {
		t.Errorf("Expected last byte 99, got %d", scratch.Result()[99])
	}
}
