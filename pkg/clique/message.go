package clique

import "fmt"

// MessageType identifies the payload of a Message.
type MessageType uint8

const (
	MessageTransaction MessageType = iota + 1
	MessageBlock
)

func (t MessageType) String() string {
	switch t {
	case MessageTransaction:
		return "transaction"
	case MessageBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Message is what a node receives from its peers, or from a local client.
// Exactly one payload is set, according to Type.
type Message struct {
	Type        MessageType
	Transaction *Transaction
	Block       *Block
}

// TransactionPayload wraps tx in a Message.
func TransactionPayload(tx *Transaction) Message {
	return Message{Type: MessageTransaction, Transaction: tx}
}

// BlockPayload wraps b in a Message.
func BlockPayload(b *Block) Message {
	return Message{Type: MessageBlock, Block: b}
}

// String implements fmt.Stringer.
func (m Message) String() string {
	switch m.Type {
	case MessageTransaction:
		if m.Transaction != nil {
			return fmt.Sprintf("message: transaction, voter %d", m.Transaction.VoterIdx)
		}
	case MessageBlock:
		if m.Block != nil {
			return fmt.Sprintf("message: block %d", m.Block.Header.Number)
		}
	}
	return fmt.Sprintf("message: %s", m.Type)
}
