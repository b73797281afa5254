// Package scraper defines core types shared across subsystems.
package scraper
