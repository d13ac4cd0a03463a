package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"freelance-escrow-go/internal/api"
	"freelance-escrow-go/internal/config"
	"freelance-escrow-go/internal/escrow"
	"freelance-escrow-go/internal/models"
	"freelance-escrow-go/pkg/chainclient"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		command    = flag.String("cmd", "demo", "Command to run: demo, config, token")
		address    = flag.String("address", "", "Address to mint a token for (token command)")
		ttl        = flag.Duration("ttl", time.Hour, "Token lifetime (token command)")
		output     = flag.String("output", "console", "Output format: console, json")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	// Show help if requested
	if *help {
		printUsage()
		os.Exit(0)
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Execute command
	switch *command {
	case "demo":
		runDemoCommand(cfg, *output)
	case "config":
		runConfigCommand(cfg, *output)
	case "token":
		runTokenCommand(cfg, *address, *ttl)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}
}

// runDemoCommand drives a full job lifecycle against the in-memory transfer
// simulator: register, post, bid, select, submit, dispute, resolve.
func runDemoCommand(cfg *config.Config, output string) {
	logger := log.New(os.Stdout, "[DEMO] ", log.LstdFlags)

	sim := chainclient.NewMemory()
	vault := escrow.NewVault(sim, logger)
	ledger := escrow.NewLedger(vault, nil, logger)
	arbiter := models.Address(cfg.Escrow.ArbiterAddress)
	if arbiter == "" {
		arbiter = "0xArbiter"
	}
	resolver := escrow.NewDisputeResolver(arbiter, ledger, logger)

	client := models.Address("0xClient")
	freelancer := models.Address("0xFreelancer")
	rival := models.Address("0xRival")

	// Seed simulator balances
	sim.Credit(client, decimal.NewFromInt(10))
	sim.Credit(freelancer, decimal.NewFromInt(1))
	sim.Credit(rival, decimal.NewFromInt(1))

	for _, addr := range []models.Address{client, freelancer, rival} {
		if _, err := ledger.RegisterUser(addr); err != nil {
			log.Fatalf("register %s: %v", addr, err)
		}
	}

	budget := decimal.NewFromInt(5)
	job, err := ledger.CreateJob(client, "Logo design", budget, "QmSpec")
	if err != nil {
		log.Fatalf("create job: %v", err)
	}

	if _, err := ledger.PlaceBid(freelancer, job.ID, decimal.RequireFromString("0.1"), "I can do this"); err != nil {
		log.Fatalf("bid: %v", err)
	}
	if _, err := ledger.PlaceBid(rival, job.ID, decimal.RequireFromString("0.2"), "Pick me"); err != nil {
		log.Fatalf("bid: %v", err)
	}

	if _, err := ledger.SelectFreelancer(client, job.ID, freelancer, budget); err != nil {
		log.Fatalf("select: %v", err)
	}
	if _, err := ledger.SubmitWork(freelancer, job.ID, "QmWork"); err != nil {
		log.Fatalf("submit: %v", err)
	}
	if _, err := ledger.RaiseDispute(client, job.ID); err != nil {
		log.Fatalf("dispute: %v", err)
	}
	final, err := resolver.Resolve(arbiter, job.ID, true)
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}
	if _, err := ledger.RefundBid(rival, job.ID); err != nil {
		log.Fatalf("refund rival bid: %v", err)
	}

	if output == "json" {
		outputJSON(map[string]interface{}{
			"job":                final,
			"events":             ledger.Events(),
			"freelancer_balance": sim.Balance(freelancer),
			"client_balance":     sim.Balance(client),
		})
		return
	}

	fmt.Println("=== Demo Lifecycle Results ===")
	fmt.Printf("Job %d finished as %s\n", final.ID, final.Status)
	fmt.Printf("Client balance: %s\n", sim.Balance(client))
	fmt.Printf("Freelancer balance: %s\n", sim.Balance(freelancer))
	fmt.Printf("Rival balance: %s\n", sim.Balance(rival))
	fmt.Println("\n=== Event Log ===")
	for _, event := range ledger.Events() {
		fmt.Printf("%s job=%d %s -> %s by %s\n",
			event.Kind, event.JobID, event.FromStatus, event.ToStatus, event.Actor)
	}
}

func runConfigCommand(cfg *config.Config, output string) {
	if output == "json" {
		outputJSON(cfg)
	} else {
		fmt.Println("Current Configuration:")
		fmt.Printf("Server Port: %d\n", cfg.Server.Port)
		fmt.Printf("Rate Limit: %d/min per caller\n", cfg.Server.RateLimit)
		fmt.Printf("Arbiter: %s\n", cfg.Escrow.ArbiterAddress)
		fmt.Printf("Chain URL: %s\n", cfg.Escrow.ChainURL)
		fmt.Printf("Mirror Enabled: %t\n", cfg.Database.Enabled)
		fmt.Printf("Supabase URL: %s\n", maskString(cfg.Database.SupabaseURL))
		fmt.Printf("Supabase Key: %s\n", maskString(cfg.Database.SupabaseKey))
		fmt.Printf("Token Secret: %s\n", maskString(cfg.Auth.TokenSecret))
	}
}

// runTokenCommand mints a bearer token for local testing against escrowd.
func runTokenCommand(cfg *config.Config, address string, ttl time.Duration) {
	if address == "" {
		log.Fatal("token command requires -address")
	}
	if cfg.Auth.TokenSecret == "" {
		log.Fatal("auth token secret is not configured")
	}

	auth := api.NewAuthenticator(cfg.Auth.TokenSecret)
	token, err := auth.IssueToken(models.Address(address), ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func printUsage() {
	fmt.Println("Escrow Engine CLI Tool")
	fmt.Println("Usage:")
	fmt.Println("  escrow-cli [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  -cmd demo      - Run a full job lifecycle against the in-memory simulator")
	fmt.Println("  -cmd config    - Show configuration")
	fmt.Println("  -cmd token     - Mint a bearer token for an address")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   - Configuration file (default: config.json)")
	fmt.Println("  -address string  - Address to mint a token for")
	fmt.Println("  -ttl duration    - Token lifetime (default: 1h)")
	fmt.Println("  -output string   - Output format: console, json (default: console)")
	fmt.Println("  -help            - Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  escrow-cli -cmd demo                       # Walk the dispute lifecycle locally")
	fmt.Println("  escrow-cli -cmd token -address 0xClient    # Mint a token for 0xClient")
	fmt.Println("  escrow-cli -cmd config -output json        # Dump configuration as JSON")
}
