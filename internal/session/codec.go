package session

import (
	"encoding/json"
	"errors"

	"github.com/jobappid/verify-portal/internal/domain"
)

// KeyPrefix namespaces persisted sessions. The version suffix changes
// whenever the blob shape does, so blobs of an older shape are never read.
const KeyPrefix = "jobappid_verify_session_v2"

// Key returns the storage key for a browser session id.
func Key(sid string) string {
	return KeyPrefix + ":" + sid
}

type agentBlob struct {
	Kind       domain.SessionKind `json:"kind"`
	OfficeName string             `json:"officeName"`
	AccessKey  string             `json:"accessKey"`
}

type agencyBlob struct {
	Kind        domain.SessionKind `json:"kind"`
	AgencyID    string             `json:"agencyId,omitempty"`
	AgencyName  string             `json:"agencyName"`
	AgencyToken string             `json:"agencyToken"`
}

// Encode serializes a session into its tagged JSON form.
func Encode(s domain.Session) ([]byte, error) {
	switch v := s.(type) {
	case domain.AgentSession:
		return json.Marshal(agentBlob{Kind: domain.SessionKindAgent, OfficeName: v.OfficeName, AccessKey: v.AccessKey})
	case domain.AgencySession:
		return json.Marshal(agencyBlob{
			Kind:        domain.SessionKindAgency,
			AgencyID:    v.AgencyID,
			AgencyName:  v.AgencyName,
			AgencyToken: v.AgencyToken,
		})
	case nil:
		return nil, errors.New("session: cannot encode nil session")
	default:
		return nil, errors.New("session: unknown session type")
	}
}

// Decode parses a persisted blob. Anything that is not JSON, carries an
// unknown kind, or lacks a required string field yields nil.
func Decode(raw []byte) domain.Session {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}

	kind, ok := fields["kind"].(string)
	if !ok {
		return nil
	}

	switch domain.SessionKind(kind) {
	case domain.SessionKindAgent:
		office, ok1 := fields["officeName"].(string)
		key, ok2 := fields["accessKey"].(string)
		if !ok1 || !ok2 {
			return nil
		}
		return domain.AgentSession{OfficeName: office, AccessKey: key}
	case domain.SessionKindAgency:
		name, ok1 := fields["agencyName"].(string)
		token, ok2 := fields["agencyToken"].(string)
		if !ok1 || !ok2 {
			return nil
		}
		var id string
		if rawID, present := fields["agencyId"]; present && rawID != nil {
			if id, ok = rawID.(string); !ok {
				return nil
			}
		}
		return domain.AgencySession{AgencyID: id, AgencyName: name, AgencyToken: token}
	default:
		return nil
	}
}
