package genotype

// InitMessage is sent to every freshly incarnated genome. Routing it always succeeds.
const InitMessage = "init"

const maxHops = 32

// Host is the owner of a genome that executed genes report to.
type Host interface {
	// Execute routes a message into the host's genome.
	Execute(msg Message) bool
	SetFeature(key string, value any)
}

// Message addresses a node by id.
type Message struct {
	Receiver string
	Host     Host
	hops     int
}

// NewMessage addresses receiver on behalf of host.
func NewMessage(receiver string, host Host) Message {
	return Message{Receiver: receiver, Host: host}
}

func (m Message) forward(receiver string) (Message, bool) {
	if m.hops >= maxHops {
		return Message{}, false
	}
	return Message{Receiver: receiver, Host: m.Host, hops: m.hops + 1}, true
}

func (m Message) retarget(receiver string) Message {
	return Message{Receiver: receiver, Host: m.Host, hops: m.hops}
}

func setFeature(msg Message, key string, value any) {
	if msg.Host != nil {
		msg.Host.SetFeature(key, value)
	}
}
