package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandEnvStrict_MissingVarErrors(t *testing.T) {
	t.Setenv("TASKSTORE_PRESENT", "ok")

	_, err := ExpandEnvStrict("a=${TASKSTORE_PRESENT} b=${TASKSTORE_MISSING}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("ExpandEnvStrict() error = %v, want ErrMissingEnv", err)
	}
	if !strings.Contains(err.Error(), "TASKSTORE_MISSING") {
		t.Fatalf("error %q does not name the missing variable", err)
	}
}

func TestExpandEnvStrict_DollarEscape(t *testing.T) {
	t.Setenv("X", "y")

	out, err := ExpandEnvStrict("$$${X}")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "$y" {
		t.Fatalf("ExpandEnvStrict() = %q, want %q", out, "$y")
	}
}

func TestExpandEnvStrict_PlainValueUntouched(t *testing.T) {
	in := "mongodb://db:27017/tasks"
	out, err := ExpandEnvStrict(in)
	if err != nil || out != in {
		t.Fatalf("ExpandEnvStrict() = %q, %v", out, err)
	}
}
