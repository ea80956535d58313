package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "submit":
		submit(os.Args[2:])
	case "poll":
		poll(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mr-client submit [-addr a] -app name [-output-dir d] [-n-reduce n] [-args s] inputfiles...\n")
	fmt.Fprintf(os.Stderr, "       mr-client poll [-addr a] -job-id id [-interval d]\n")
	os.Exit(1)
}

func submit(arguments []string) {
	flags := flag.NewFlagSet("submit", flag.ExitOnError)
	address := flags.String("addr", "localhost:8030", "coordinator address")
	appName := flags.String("app", "", "application to run")
	outputDir := flags.String("output-dir", "/tmp/mr-out", "directory for reduce output")
	nReduce := flags.Uint("n-reduce", 5, "number of reduce partitions")
	appArgs := flags.String("args", "", "opaque arguments handed to the application")
	flags.Parse(arguments)

	if flags.NArg() == 0 {
		usage()
	}

	client := rpc.NewCoordinatorClient(*address)
	jobId, err := client.SubmitJob(rpc.SubmitJobArgs{
		Files:     flags.Args(),
		OutputDir: *outputDir,
		App:       *appName,
		NReduce:   uint32(*nReduce),
		Args:      []byte(*appArgs),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not submit job: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(jobId)
}

func poll(arguments []string) {
	flags := flag.NewFlagSet("poll", flag.ExitOnError)
	address := flags.String("addr", "localhost:8030", "coordinator address")
	jobId := flags.Uint("job-id", 0, "job to wait for")
	interval := flags.Duration("interval", time.Second, "time between polls")
	flags.Parse(arguments)

	client := rpc.NewCoordinatorClient(*address)
	for {
		reply, err := client.PollJob(uint32(*jobId))
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not poll job %v: %v\n", *jobId, err)
			os.Exit(1)
		}

		if reply.Failed {
			fmt.Fprintf(os.Stderr, "job %v failed: %v\n", *jobId, reply.Errors)
			os.Exit(1)
		}

		if reply.Done {
			fmt.Printf("job %v done\n", *jobId)
			return
		}

		time.Sleep(*interval)
	}
}
