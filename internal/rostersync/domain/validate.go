package domain

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tansive/rostersync/internal/common/apperrors"
)

var (
	ErrInvalidEntity  = apperrors.New("invalid entity").SetStatusCode(http.StatusBadRequest)
	ErrIDAssigned     = ErrInvalidEntity.New("draft must not carry an id")
	ErrIDMissing      = ErrInvalidEntity.New("entity has no id")
	ErrVersionMissing = ErrInvalidEntity.New("entity has no version")
	ErrTenantMismatch = ErrInvalidEntity.New("entity belongs to another tenant")
)

var entityValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateDraft checks an entity about to be created. Drafts must not carry an id.
func ValidateDraft(e Entity) error {
	if _, ok := e.Identity(); ok {
		return ErrIDAssigned
	}
	return validateFields(e)
}

// ValidatePersisted checks an entity that is about to be updated or removed.
func ValidatePersisted(e Entity) error {
	if _, ok := e.Identity(); !ok {
		return ErrIDMissing
	}
	if !hasVersion(e) {
		return ErrVersionMissing
	}
	return validateFields(e)
}

// ValidateTenant rejects tenant-scoped entities that do not belong to tenantID.
func ValidateTenant(e Entity, tenantID int) error {
	ts, ok := e.(TenantScoped)
	if !ok || ts.Tenant() == tenantID {
		return nil
	}
	return ErrTenantMismatch.Msg(fmt.Sprintf("entity tenant %d, current tenant %d", ts.Tenant(), tenantID))
}

func hasVersion(e Entity) bool {
	switch v := e.(type) {
	case Tenant:
		return v.Version != nil
	case Skill:
		return v.Version != nil
	case Contract:
		return v.Version != nil
	case Spot:
		return v.Version != nil
	case Employee:
		return v.Version != nil
	}
	return true
}

func validateFields(e Entity) error {
	err := entityValidator.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidEntity.Err(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Type.json.path"; drop the type name.
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return ErrInvalidEntity.Msg(strings.Join(msgs, "; "))
}
