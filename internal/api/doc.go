// Package api handles incoming HTTP requests, request validation, and
// response formatting. It acts as an adapter between external clients and
// the internal application services, translating HTTP concerns to business
// operations.
//
// Handlers decode and shape-check the payload, call a service, and render
// either the success body or, through HandleAPIError, the common error
// envelope {success:false, error:{status, message, ...}}.
package api
