// Package middleware wraps history stores with encryption and parameter masking.
package middleware
