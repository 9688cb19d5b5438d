// Package resource bounds the memory and IO bandwidth a sort may use.
//
// A Controller is safe for concurrent use and may be shared between several
// sorters so that they draw from one budget. A nil *Controller imposes no
// limits.
package resource
