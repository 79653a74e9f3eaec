// Inspects a FundGuard bolt state file and prints what it holds.
// Useful after migrations or when debugging a deployment's data.
package main

import (
	"log"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fundguard/fundguard/src/api/store"
)

func main() {
	path := os.Getenv("BOLT_PATH")
	if path == "" {
		path = "fundguard.db"
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	st, err := store.NewBoltBackend(db).Load()
	if err != nil {
		log.Fatalf("load state: %v", err)
	}

	log.Printf("%s: %d accounts, %d communities", path, len(st.Accounts), len(st.Communities))
	for code, c := range st.Communities {
		log.Printf("  %s %q: %d members, %d proposals, owner %s",
			code, c.Name, len(c.Members), len(c.Proposals), c.OrganizationEmail)
		for _, p := range c.Proposals {
			log.Printf("    proposal %s %q: %d yes / %d no, status %s",
				p.ID, p.Title, p.YesVotes, p.NoVotes, p.Status)
		}
	}
}
