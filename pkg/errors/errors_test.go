package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestFromDBClassifiesErrors(t *testing.T) {
	if FromDB(nil, "x", "y") != nil {
		t.Fatalf("nil error should stay nil")
	}

	notFound := FromDB(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "product not found", "load product")
	if !IsCode(notFound, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", notFound)
	}
	if As(notFound).Message() != "product not found" {
		t.Fatalf("unexpected message %q", As(notFound).Message())
	}

	typed := New(CodeStateConflict, "sold out")
	if got := FromDB(typed, "x", "y"); As(got) != typed {
		t.Fatalf("typed errors should pass through unchanged")
	}

	dep := FromDB(stdErrors.New("connection reset"), "x", "load product")
	if !IsCode(dep, CodeDependency) {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", dep)
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeStateConflict, "Not enough stock for '%s'. Only %d left in stock.", "Tea", 2)
	if err.Message() != "Not enough stock for 'Tea'. Only 2 left in stock." {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestDiagnoseReadsDriverFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_cart_items_user_product",
		TableName:      "cart_items",
		Detail:         "Key (user_id, product_id) already exists.",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert cart entry: %w", pgErr), "create cart entry")

	d := Diagnose(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.SQLState != "23505" || d.Constraint != "idx_cart_items_user_product" || d.Table != "cart_items" {
		t.Fatalf("driver fields not captured: %+v", d)
	}
	if len(d.Layers) < 2 {
		t.Fatalf("expected wrapped layers, got %v", d.Layers)
	}

	fields := d.Fields()
	if fields["sql_state"] != "23505" || fields["error_code"] != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected log fields %v", fields)
	}
	if _, ok := fields["sql_column"]; ok {
		t.Fatalf("empty driver fields should be dropped: %v", fields)
	}
}

func TestDiagnosePlainError(t *testing.T) {
	d := Diagnose(stdErrors.New("boom"))
	fields := d.Fields()
	if fields["error"] != "boom" {
		t.Fatalf("unexpected message %v", fields["error"])
	}
	if _, ok := fields["error_layers"]; ok {
		t.Fatalf("single layer should not be listed: %v", fields)
	}
	if len(Diagnose(nil).Fields()) != 1 {
		t.Fatal("nil error should only carry an empty message")
	}
}
