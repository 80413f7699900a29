// Package activity defines the conversational-protocol event model.
//
// An Activity is one inbound or outbound event: a user message, an invoke
// (a request/response operation carried over the same wire), or any other
// protocol event. The gateway reads inbound activities and never mutates
// them; outbound activities are constructed with CreateReply or NewMessage.
//
// Validation is deliberately minimal: the pipeline only requires a type and
// a conversation id. Everything else is the dialog engine's business.
package activity
