package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	enginex "github.com/tanpawarit/Stratus-Weather-Stock-Agent/agent/engine"
	configx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/pkg/config"
	_ "github.com/tanpawarit/Stratus-Weather-Stock-Agent/pkg/logger/autoload"
	stocksx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/pkg/stocks"
	weatherx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/pkg/weather"
	serverx "github.com/tanpawarit/Stratus-Weather-Stock-Agent/server"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP server instead of the interactive prompt")
	flag.Parse()

	weatherCfg := configx.MustNew[weatherx.Config]("VISUALCROSSING")
	weatherClient := weatherx.MustNew(*weatherCfg)

	stocksCfg := configx.MustNew[stocksx.Config]("YAHOO")
	stocksClient := stocksx.MustNew(*stocksCfg)

	engineCfg := configx.MustNew[enginex.Config]("AGENT")

	progress := func(event, message string) {
		fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), event, message)
	}

	engine, err := enginex.New(weatherClient, stocksClient, *engineCfg,
		enginex.WithProgress(progress),
	)
	if err != nil {
		panic(err)
	}

	if *serve {
		serverCfg := configx.MustNew[serverx.Config]("SERVER")
		srv, err := serverx.New(engine, *serverCfg)
		if err != nil {
			panic(err)
		}
		runServer(srv, serverCfg.ShutdownTimeout)
		return
	}

	runPrompt(engine)
}

// runServer blocks until the listener fails or a SIGINT/SIGTERM arrives, then
// drains in-flight streams within the shutdown timeout.
func runServer(srv *serverx.Server, shutdownTimeout time.Duration) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			panic(err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			panic(err)
		}
		<-errCh
	}
}

func runPrompt(engine *enginex.Engine) {
	fmt.Println("Weather & Stock Agent")
	fmt.Println("Ask about the weather or stock prices. Commands: memory, clear, quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit":
			fmt.Println("Goodbye!")
			return
		case "clear":
			engine.ClearMemory()
			fmt.Println("Conversation memory cleared.")
			continue
		case "memory":
			printMemory(engine)
			continue
		}

		answer, err := engine.Ask(context.Background(), input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}

func printMemory(engine *enginex.Engine) {
	snap := engine.MemorySnapshot()
	fmt.Println("Conversation memory:")
	fmt.Printf("  Last city:        %s\n", orNone(snap.LastCity))
	fmt.Printf("  Last stock query: %s\n", orNone(snap.LastStockQuery))
	fmt.Printf("  Last stock date:  %s\n", orNone(snap.LastStockDate))
	fmt.Printf("  Last intent:      %s\n", orNone(string(snap.LastIntent)))
	if len(snap.History) == 0 {
		fmt.Println("  History:          (none)")
		return
	}
	fmt.Println("  History:")
	for _, entry := range snap.History {
		fmt.Printf("    - %s\n", entry)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
