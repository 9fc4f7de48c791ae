// Package domain holds typed identifiers shared across modules.
//
// Identifiers are positive 64-bit integers. Typed wrappers keep an area id
// from being passed where a flow id is expected; Parse* functions are the
// only way untrusted input (headers, path params) becomes an id.
package domain

import (
	"strconv"
	"strings"

	dErrors "tramite/pkg/domain-errors"
)

type (
	AreaID         int64
	AgencyID       int64
	ProcedureID    int64
	FlowID         int64
	FileID         int64
	UserID         int64
	DocumentTypeID int64
	HolidayID      int64
)

// maxIDDigits bounds input length before strconv sees it.
const maxIDDigits = 19

func parsePositive(kind, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(raw) > maxIDDigits {
		return 0, dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, kind+" must be positive")
	}
	return v, nil
}

func ParseAreaID(s string) (AreaID, error) {
	v, err := parsePositive("area id", s)
	return AreaID(v), err
}

func ParseAgencyID(s string) (AgencyID, error) {
	v, err := parsePositive("agency id", s)
	return AgencyID(v), err
}

func ParseProcedureID(s string) (ProcedureID, error) {
	v, err := parsePositive("procedure id", s)
	return ProcedureID(v), err
}

func ParseFlowID(s string) (FlowID, error) {
	v, err := parsePositive("flow id", s)
	return FlowID(v), err
}

func ParseUserID(s string) (UserID, error) {
	v, err := parsePositive("user id", s)
	return UserID(v), err
}

func ParseHolidayID(s string) (HolidayID, error) {
	v, err := parsePositive("holiday id", s)
	return HolidayID(v), err
}

func (id AreaID) IsZero() bool      { return id == 0 }
func (id ProcedureID) IsZero() bool { return id == 0 }
func (id FlowID) IsZero() bool      { return id == 0 }
func (id UserID) IsZero() bool      { return id == 0 }

func (id AreaID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id ProcedureID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id FlowID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id AgencyID) String() string    { return strconv.FormatInt(int64(id), 10) }
