// Command stafftoken mints an access token for a staff member, signed with
// the server's JWT_SECRET.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/lane-ops/internal/config"
	"github.com/iliyamo/lane-ops/internal/utils"
)

type tokenEnv struct {
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
}

func main() {
	id := flag.Uint64("id", 0, "staff user id")
	role := flag.String("role", "STAFF", "STAFF or ADMIN")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	var env tokenEnv
	if err := config.ParseEnv(&env); err != nil {
		log.Fatal(err)
	}

	tok, err := utils.NewStaffToken(env.JWTSecret, *id, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tok); err != nil {
		log.Fatal(err)
	}
}
