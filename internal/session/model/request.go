package model

type FieldRequest struct {
	Tag   int    `json:"tag" form:"tag" validate:"gt=0"`
	Value string `json:"value" form:"value" validate:"required"`
}

// SendRequest asks the session to transmit an application message.
type SendRequest struct {
	MsgType string         `json:"msgType" validate:"required"`
	Fields  []FieldRequest `json:"fields" validate:"dive"`
}

type LogoutRequest struct {
	Text string `json:"text"`
}
