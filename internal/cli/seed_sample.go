package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// SampleBook is inserted by seed-sample into an empty catalog.
var SampleBook = entities.Book{
	Title:  "The Great Gatsby",
	Author: "F. Scott Fitzgerald",
	Description: "The Great Gatsby is a 1925 novel by American writer F. Scott Fitzgerald. " +
		"Set in the Jazz Age on Long Island, the novel depicts narrator Nick Carraway's " +
		"interactions with mysterious millionaire Jay Gatsby and Gatsby's obsession to " +
		"reunite with his former lover, Daisy Buchanan.",
	Publisher: "Charles Scribner's Sons",
	Year:      1925,
	ISBN:      "9780743273565",
	Category:  entities.CategoryFiction,
}

// SeedSampleCommand adds one sample book when the catalog is empty.
type SeedSampleCommand struct {
	DatabaseURL string

	out io.Writer
}

func NewSeedSampleCommand(databaseURL string) *SeedSampleCommand {
	return &SeedSampleCommand{DatabaseURL: databaseURL, out: os.Stdout}
}

func (cmd *SeedSampleCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-sample", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabaseURL, "db", cmd.DatabaseURL, "Database path or URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-sample [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add a sample book if the catalog is empty.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedSampleCommand) Run() error {
	db, err := openDatabase(cmd.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := seedSample(books.NewRepository(db.DB))
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintln(cmd.out, "Sample book created successfully!")
	} else {
		fmt.Fprintln(cmd.out, "Books already exist in the database.")
	}
	return nil
}

type sampleStore interface {
	CountBooks() (int64, error)
	CreateBook(book *entities.Book) error
}

func seedSample(store sampleStore) (bool, error) {
	count, err := store.CountBooks()
	if err != nil {
		return false, fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	book := SampleBook
	if err := store.CreateBook(&book); err != nil {
		return false, fmt.Errorf("failed to create sample book: %w", err)
	}
	return true, nil
}
