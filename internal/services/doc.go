// Package services holds cross-cutting helpers shared by pipeline stages:
// the sentinel error taxonomy used to classify stage failures and the
// context carriers that thread run identity and stage names into logging.
package services
