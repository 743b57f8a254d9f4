package validator

import (
	"errors"
	"strings"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/exproctor/internal/model"
)

func newTestValidate() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("binding")
	register(v)
	return v
}

func TestTranslateErrors(t *testing.T) {
	v := newTestValidate()

	tests := []struct {
		name  string
		input any
		field string
		want  string
	}{
		{
			name:  "missing college id",
			input: model.LoginRequest{Password: "x"},
			field: "college_id",
			want:  "required",
		},
		{
			name:  "teacher without subject",
			input: model.RegisterRequest{CollegeID: "T-01", Name: "Ms. Rivera", Password: "secret1", Role: model.RoleTeacher},
			field: "subject",
			want:  "required",
		},
		{
			name:  "blank proctoring event",
			input: struct {
				Event string `json:"event" binding:"notblank"`
			}{Event: "   "},
			field: "event",
			want:  "must not be blank",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			fields := TranslateErrors(err)
			msg, ok := fields[tt.field]
			if !ok {
				t.Fatalf("no error for %q in %v", tt.field, fields)
			}
			if !strings.Contains(msg, tt.want) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.want)
			}
		})
	}
}

func TestTranslateErrors_NonValidation(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	if fields["detail"] != "unexpected EOF" {
		t.Errorf("fields = %v", fields)
	}
}
