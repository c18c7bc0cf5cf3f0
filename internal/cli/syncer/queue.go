package syncer

import (
	"encoding/json"

	"Notico/internal/cli/model"
	"Notico/internal/dto"
)

type entityKey struct {
	Type     model.EntityType
	ClientID string
}

// Batch — снимок очереди, свёрнутый до одной операции на сущность.
type Batch struct {
	Folders []dto.Operation
	Items   []dto.Operation
	// IDs are all snapshot entry ids; only these may be cleared after the round.
	IDs []int64
	// Malformed lists entries whose data could not be decoded; their data is
	// treated as empty.
	Malformed []int64

	idsByKey map[entityKey][]int64
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int { return len(b.Folders) + len(b.Items) }

// IDsFor returns the snapshot entry ids of one entity.
func (b *Batch) IDsFor(entityType model.EntityType, clientID string) []int64 {
	return b.idsByKey[entityKey{entityType, clientID}]
}

// pending accumulates the net effect of one entity's entries.
type pending struct {
	created bool
	deleted bool
	data    map[string]json.RawMessage
}

// Coalesce folds queue entries (in replay order) into one operation per
// entity so that applying it equals applying every entry in order:
//
//   - create followed by updates stays a create carrying the merged data;
//   - consecutive updates merge their fields, later values win;
//   - delete supersedes everything before it, a pending create included;
//   - an update carrying deleted=false after a delete (restore) turns the
//     delete back into the create or update it replaced.
//
// Operations keep the order in which their entity first appears, folders and
// items in separate lists.
func Coalesce(entries []model.QueueEntry) *Batch {
	b := &Batch{idsByKey: map[entityKey][]int64{}}
	state := map[entityKey]*pending{}
	var order []entityKey

	for _, e := range entries {
		key := entityKey{e.EntityType, e.ClientID}
		b.IDs = append(b.IDs, e.ID)
		b.idsByKey[key] = append(b.idsByKey[key], e.ID)

		p, ok := state[key]
		if !ok {
			p = &pending{data: map[string]json.RawMessage{}}
			state[key] = p
			order = append(order, key)
		}

		var data map[string]json.RawMessage
		if len(e.Data) > 0 && e.Action != model.ActionDelete {
			if err := json.Unmarshal(e.Data, &data); err != nil {
				b.Malformed = append(b.Malformed, e.ID)
				data = nil
			}
		}

		switch e.Action {
		case model.ActionCreate:
			p.created = true
			p.deleted = false
			p.data = map[string]json.RawMessage{}
			merge(p.data, data)
		case model.ActionUpdate:
			merge(p.data, data)
			if raw, ok := data["deleted"]; ok && string(raw) == "false" {
				p.deleted = false
			}
		case model.ActionDelete:
			p.deleted = true
		}
	}

	for _, key := range order {
		op := state[key].operation(key.ClientID)
		if key.Type == model.EntityFolder {
			b.Folders = append(b.Folders, op)
		} else {
			b.Items = append(b.Items, op)
		}
	}
	return b
}

func (p *pending) operation(clientID string) dto.Operation {
	switch {
	case p.deleted:
		return dto.Operation{Action: dto.ActionDelete, ClientID: clientID}
	case p.created:
		return dto.Operation{Action: dto.ActionCreate, ClientID: clientID, Data: encode(p.data)}
	default:
		return dto.Operation{Action: dto.ActionUpdate, ClientID: clientID, Data: encode(p.data)}
	}
}

func merge(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		dst[k] = v
	}
}

func encode(m map[string]json.RawMessage) json.RawMessage {
	b, err := json.Marshal(m)
	if err != nil {
		// RawMessage values came from json.Unmarshal and are always valid
		return json.RawMessage("{}")
	}
	return b
}
