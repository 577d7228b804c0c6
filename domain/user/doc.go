// Package user holds the account side of the domain: users, their login sessions and profiles.
package user
