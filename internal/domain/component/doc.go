// Package component implements the component record store: an in-memory
// CRUD store of {id, code, createdAt, updatedAt} records listed by recency,
// plus a seeder that loads starter components from YAML manifests.
package component
