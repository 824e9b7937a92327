package command

import "testing"

func TestSuccess(t *testing.T) {
	if !(Result{ReturnCode: 0}).Success() {
		t.Fatal("expected return code 0 to be success")
	}
	if (Result{ReturnCode: 1}).Success() {
		t.Fatal("expected non-zero return code to be failure")
	}
}
