package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EmergencyKind tags which payload shape the service returned.
type EmergencyKind int

const (
	EmergencyNone EmergencyKind = iota
	EmergencySingleAlert
	EmergencyAlertList
)

func (k EmergencyKind) String() string {
	switch k {
	case EmergencySingleAlert:
		return "single_alert"
	case EmergencyAlertList:
		return "alert_list"
	default:
		return "none"
	}
}

type (
	SingleAlert struct {
		HasEmergency bool   `json:"has_emergency"`
		Title        string `json:"alert_title"`
		Message      string `json:"alert_message"`
	}

	AlertItem struct {
		Type     string  `json:"type"`
		Message  string  `json:"message"`
		Severity string  `json:"severity,omitempty"`
		Amount   float64 `json:"amount,omitempty"`
	}

	// Emergency is resolved from either an object or an array payload.
	// Callers switch on Kind and never inspect raw JSON.
	Emergency struct {
		Kind   EmergencyKind
		Single SingleAlert
		Alerts []AlertItem
	}
)

// Active reports whether there is an alert worth showing.
func (e Emergency) Active() bool {
	switch e.Kind {
	case EmergencySingleAlert:
		return e.Single.HasEmergency
	case EmergencyAlertList:
		return len(e.Alerts) > 0
	default:
		return false
	}
}

func (e *Emergency) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*e = Emergency{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '{':
		var single SingleAlert
		if err := json.Unmarshal(b, &single); err != nil {
			return fmt.Errorf("decode emergency object: %w", err)
		}
		e.Kind = EmergencySingleAlert
		e.Single = single
	case '[':
		var raw []struct {
			AlertItem
			Description string `json:"description"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decode emergency list: %w", err)
		}
		e.Kind = EmergencyAlertList
		e.Alerts = make([]AlertItem, 0, len(raw))
		for _, r := range raw {
			item := r.AlertItem
			if item.Message == "" {
				item.Message = r.Description
			}
			e.Alerts = append(e.Alerts, item)
		}
	default:
		return fmt.Errorf("decode emergency: unexpected payload %q", b[0])
	}
	return nil
}

func (e Emergency) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EmergencySingleAlert:
		return json.Marshal(e.Single)
	case EmergencyAlertList:
		return json.Marshal(e.Alerts)
	default:
		return []byte("null"), nil
	}
}
