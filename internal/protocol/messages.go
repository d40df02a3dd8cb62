package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	AgentName       string     `json:"agent_name"`
	Auth            *HelloAuth `json:"auth,omitempty"`
	MaxQueue        int        `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	AgentID         string         `json:"agent_id"`
	Spawn           [3]float64     `json:"spawn"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	WorldID    string `json:"world_id"`
	TickRateHz int    `json:"tick_rate_hz"`
	Height     int    `json:"height"`
	BoundaryR  int    `json:"boundary_r"`
}

type CatalogDigests struct {
	BlockPalette DigestRef `json:"block_palette"`
	ItemPalette  DigestRef `json:"item_palette"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	AgentID         string       `json:"agent_id,omitempty"`
	Instants        []InstantReq `json:"instants"`
}

// Instant types.
const (
	InstantMove     = "MOVE"
	InstantInteract = "INTERACT"
	InstantSay      = "SAY"
	InstantPlace    = "PLACE"
	InstantPut      = "PUT"
)

type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// MOVE
	Pos [3]float64 `json:"pos,omitempty"`

	// INTERACT / PLACE / PUT
	Target [3]int `json:"target,omitempty"`

	// SAY
	Text string `json:"text,omitempty"`

	// PLACE
	Block string `json:"block,omitempty"`

	// PUT
	Slot  int    `json:"slot,omitempty"`
	Item  string `json:"item,omitempty"`
	Count int    `json:"count,omitempty"`
}

// EVENT (server -> client)
type EventMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Events          []Event `json:"events"`
}

type Event map[string]interface{}
