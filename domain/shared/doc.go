/*
Package shared holds the building blocks every aggregate uses: identifiers, the pending-event
buffer and the value objects shared between the user, stash and governance contexts.
*/
package shared
