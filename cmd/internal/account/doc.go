// Package account owns the account lifecycle: registration, activation,
// password reset, credential checks, and deletion.
//
// Registration is the one multi-row atomic section in Passage. The inactive
// account row is inserted inside a store transaction and the activation email
// is dispatched before commit: if the mail relay does not acknowledge, the
// transaction rolls back and the account never existed. Every other
// operation is a single-row write.
package account
