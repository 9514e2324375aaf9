package schema

import (
	"time"

	"github.com/hashicorp/go-memdb"
)

// Message is one outbound message kept for retransmission.
type Message struct {
	SessionID string    `json:"session_id"`
	SeqNum    int       `json:"seq_num"`
	MsgType   string    `json:"msg_type"`
	Raw       []byte    `json:"raw"`
	SentAt    time.Time `json:"sent_at"`
}

// Sequence holds the next sender and target sequence numbers of a session.
type Sequence struct {
	SessionID  string `json:"session_id"`
	NextSender int    `json:"next_sender"`
	NextTarget int    `json:"next_target"`
}

const (
	MessageTable  = "messages"
	SequenceTable = "sequences"
)

var MessageSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		MessageTable: {
			Name: MessageTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "SessionID"},
							&memdb.IntFieldIndex{Field: "SeqNum"},
						},
					},
				},
				"session_id": {
					Name:    "session_id",
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "SessionID"},
				},
			},
		},
	},
}

var SequenceSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		SequenceTable: {
			Name: SequenceTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "SessionID"},
				},
			},
		},
	},
}
