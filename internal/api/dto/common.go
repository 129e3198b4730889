package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UserID accepts a JSON number or a numeric string. Anything else decodes
// to zero and fails validation downstream.
type UserID int64

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*u = 0
		return nil
	}
	*u = UserID(id)
	return nil
}

// Int64 returns the id as an int64
func (u UserID) Int64() int64 {
	return int64(u)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error            string `json:"error"`
	NeedSubscription bool   `json:"needSubscription,omitempty"`
}
