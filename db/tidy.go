package db

import (
	"time"

	sb "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Tidy removes posts older than the retention window from the database
func Tidy(database string, retentionDays int) error {
	db, err := connection(database)
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()
	deletePosts := sb.NewDeleteBuilder()
	query, args := deletePosts.DeleteFrom("posts").
		Where(deletePosts.LessEqualThan("posted_at", cutoff)).
		BuildWithFlavor(sb.SQLite)

	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Info("Tidying database")

	res, err := db.Exec(query, args...)
	if err != nil {
		return err
	}

	deleted, _ := res.RowsAffected()
	log.WithFields(log.Fields{"deleted": deleted}).Info("Tidy complete")

	return nil
}
