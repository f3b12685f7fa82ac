// Package domain contains the core business entities (users and tasks),
// their validation rules, and the ValidationError result type used by every
// entry point that accepts client input. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
