package dto

type EmitInput struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    any // marshalled to JSON
}
