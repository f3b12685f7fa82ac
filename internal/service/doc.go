// Package service contains the application use cases. It orchestrates
// domain objects and the store interfaces (defined in internal/store) to
// implement registration, login and the task operations.
//
// Key components:
//
//  1. UserService: registration, credential checks and token issuance,
//     plus the admin user listing.
//  2. TaskService: owner-scoped task operations. Listings are served
//     cache-aside; concurrent misses on one key are collapsed with
//     singleflight, and every write invalidates the owner's cached lists.
//  3. ParseTaskQuery: turns listing query parameters into a store.TaskQuery
//     with the owner filter forced to the acting user.
//
// Services receive their dependencies through constructor injection and
// never depend on a concrete infrastructure implementation except through
// the interfaces in internal/store and internal/platform/cache.
package service
