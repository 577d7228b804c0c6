// Package governance describes what a principal is allowed to do: policies made of rules whose
// CEL predicates are evaluated against facts, and actions fired by triggers.
package governance
