package middleware

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/strugal/inventory-platform/internal/model"
)

const (
	maxMaterialTypeLength = 64
	maxDescriptionLength  = 2000
	maxUsernameLength     = 128
)

// ValidateMaterialType validates a material type name.
func ValidateMaterialType(t string) error {
	if strings.TrimSpace(t) == "" {
		return errors.New("type cannot be empty")
	}
	if len(t) > maxMaterialTypeLength {
		return errors.New("type exceeds maximum length")
	}
	if !utf8.ValidString(t) {
		return errors.New("type must be valid UTF-8")
	}
	return nil
}

// ValidateQuantity validates a stock quantity.
func ValidateQuantity(q int) error {
	if q < 0 {
		return errors.New("quantity cannot be negative")
	}
	return nil
}

// ValidateDescription validates an item description.
func ValidateDescription(d string) error {
	if len(d) > maxDescriptionLength {
		return errors.New("description exceeds maximum length")
	}
	if !utf8.ValidString(d) {
		return errors.New("description must be valid UTF-8")
	}
	return nil
}

// ValidateCreateInventory validates a create request.
func ValidateCreateInventory(req *model.CreateInventoryRequest) error {
	if err := ValidateMaterialType(req.Type); err != nil {
		return err
	}
	if err := ValidateQuantity(req.Quantity); err != nil {
		return err
	}
	return ValidateDescription(req.Description)
}

// ValidateUpdateInventory validates the fields present in an update request.
func ValidateUpdateInventory(req *model.UpdateInventoryRequest) error {
	if req.Type == nil && req.Quantity == nil && req.Description == nil {
		return errors.New("no fields to update")
	}
	if req.Type != nil {
		if err := ValidateMaterialType(*req.Type); err != nil {
			return err
		}
	}
	if req.Quantity != nil {
		if err := ValidateQuantity(*req.Quantity); err != nil {
			return err
		}
	}
	if req.Description != nil {
		return ValidateDescription(*req.Description)
	}
	return nil
}

// ParseItemID validates and parses an inventory item ID.
func ParseItemID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid item ID format")
	}
	return n, nil
}

// ValidateCredentials validates a login request.
func ValidateCredentials(req *model.LoginRequest) error {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return errors.New("username and password are required")
	}
	if len(req.Username) > maxUsernameLength {
		return errors.New("username exceeds maximum length")
	}
	return nil
}
