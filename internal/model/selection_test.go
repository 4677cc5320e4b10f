package model

import "testing"

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		n        int
		want     []int
		wantErr  bool
	}{
		{name: "empty selects all", selector: "", n: 3, want: []int{1, 2, 3}},
		{name: "single index", selector: "2", n: 5, want: []int{2}},
		{name: "range", selector: "2-4", n: 5, want: []int{2, 3, 4}},
		{name: "mixed", selector: "1-2,5", n: 5, want: []int{1, 2, 5}},
		{name: "overlap", selector: "1-3,2", n: 3, want: []int{1, 2, 3}},
		{name: "spaces", selector: " 1 , 3 ", n: 3, want: []int{1, 3}},
		{name: "out of range high", selector: "6", n: 5, wantErr: true},
		{name: "out of range low", selector: "0", n: 5, wantErr: true},
		{name: "reversed range", selector: "4-2", n: 5, wantErr: true},
		{name: "garbage", selector: "a-b", n: 5, wantErr: true},
		{name: "only commas", selector: ",,", n: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.selector, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d indices, want %d", len(got), len(tt.want))
			}
			for _, i := range tt.want {
				if !got[i] {
					t.Errorf("index %d not selected", i)
				}
			}
		})
	}
}

func TestOutputKindExt(t *testing.T) {
	if got := KindAudio.Ext(); got != ".mp3" {
		t.Errorf("audio ext = %q", got)
	}
	if got := KindVideo.Ext(); got != ".mp4" {
		t.Errorf("video ext = %q", got)
	}
}
