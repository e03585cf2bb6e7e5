// Package helper provides fixtures and observability spies for the lending tests.
package helper
