package meeting

import "fmt"

// Modal is the single overlay shown on the dashboard. ModalNone means Idle.
type Modal int

const (
	ModalNone Modal = iota
	ModalInstant
	ModalJoin
	ModalSchedule
)

var modalNames = map[Modal]string{
	ModalNone:     "none",
	ModalInstant:  "instant",
	ModalJoin:     "join",
	ModalSchedule: "schedule",
}

func (m Modal) String() string {
	if s, ok := modalNames[m]; ok {
		return s
	}
	return fmt.Sprintf("modal(%d)", int(m))
}

func (m Modal) MarshalText() ([]byte, error) {
	if _, ok := modalNames[m]; !ok {
		return nil, fmt.Errorf("unknown modal %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Modal) UnmarshalText(b []byte) error {
	parsed, err := ParseModal(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseModal accepts the names used by forms and the JSON API. The empty
// string is ModalNone.
func ParseModal(s string) (Modal, error) {
	if s == "" {
		return ModalNone, nil
	}
	for m, name := range modalNames {
		if name == s {
			return m, nil
		}
	}
	return ModalNone, fmt.Errorf("%w: unknown modal %q", ErrValidation, s)
}
