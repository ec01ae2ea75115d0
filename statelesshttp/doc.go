// Package statelesshttp serves JSON-RPC over plain HTTP POST, one envelope
// per request, with no session state between requests.
//
// The handler is the transport gate: it enforces the verb and header rules
// (protocol version header, Accept negotiation), classifies the decoded
// envelope, and maps each class to its HTTP outcome. Requests are dispatched
// and answered with an envelope in a 200 response; notifications and
// response-shaped envelopes are acknowledged with an empty 202 and discarded.
// Transport-level rejections use bare HTTP statuses; everything that fails
// after the gate is reported inside a JSON-RPC envelope, with internal
// failures forced to a null id and a 500 status.
//
// Streaming is deliberately unsupported: a GET that asks for
// text/event-stream is answered 405 with an Allow: POST header so streaming
// clients fail fast.
package statelesshttp
