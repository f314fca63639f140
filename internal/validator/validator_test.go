package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type sample struct {
	Type  string `binding:"omitempty,transaction_type"`
	Range string `binding:"omitempty,time_range"`
	Day   string `binding:"omitempty,weekday"`
	Unit  string `binding:"omitempty,reps_unit"`
	Trash string `binding:"omitempty,trash_type"`
	Title string `binding:"omitempty,notblank"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name    string
		input   sample
		wantErr bool
	}{
		{"empty_is_allowed", sample{}, false},
		{"valid_values", sample{Type: "income", Range: "weekly", Day: "Monday", Unit: "seconds", Trash: "journal", Title: "Run"}, false},
		{"bad_transaction_type", sample{Type: "transfer"}, true},
		{"bad_time_range", sample{Range: "hourly"}, true},
		{"lowercase_weekday", sample{Day: "monday"}, true},
		{"bad_reps_unit", sample{Unit: "laps"}, true},
		{"bad_trash_type", sample{Trash: "user"}, true},
		{"blank_title", sample{Title: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.input)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
