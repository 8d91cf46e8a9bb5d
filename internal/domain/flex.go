package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errFlexString = errors.New("must be a string or a number")

// FlexString is free text that clients may also send as a JSON number,
// e.g. a budget of 1500 or "1500/day". Numbers keep their literal form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return errFlexString
	}

	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
