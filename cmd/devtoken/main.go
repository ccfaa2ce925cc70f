// Command devtoken prints a signed access token for local testing of the
// booking API.  Tokens are signed with JWT_SECRET from the environment or
// a .env file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/iliyamo/hostel-booking/internal/config"
	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/utils"
)

func main() {
	userID := flag.Uint64("user", 1, "user id placed in the sub claim")
	role := flag.String("role", model.RoleCustomer, "CUSTOMER, OWNER or ADMIN")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	config.LoadDotEnv(os.Getenv("ENV_FILE"))
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	r := strings.ToUpper(*role)
	switch r {
	case model.RoleCustomer, model.RoleOwner, model.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	tok, err := utils.NewAccessToken(secret, *userID, r, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
