package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

var (
	dsn      = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	only     = flag.String("precincts", "", "Comma-separated precinct ids to report on (default: all)")
	timeout  = flag.Duration("timeout", 30*time.Second, "Query timeout")
	notesTbl = flag.String("table", "canvass.interaction_notes", "Interaction notes table")
)

// Row is one precinct's canvassing activity.
type Row struct {
	PrecinctID string
	Notes      int64
	Addresses  int64
	NotHome    int64
	Volunteers int64
	LastNote   sql.NullTime
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	conn, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rows, err := query(ctx, conn, *notesTbl, splitIDs(*only))
	if err != nil {
		fatalf("query: %v", err)
	}
	render(os.Stdout, rows)
}

// coverageQuery aggregates notes per precinct. Tags are stored comma
// joined, so the not-home match is delimited to skip tags like
// not-home-later.
func coverageQuery(table string) string {
	return `
		SELECT precinct_id,
		       COUNT(*),
		       COUNT(DISTINCT address_id),
		       COUNT(*) FILTER (WHERE ',' || tags || ',' LIKE '%,not-home,%'),
		       COUNT(DISTINCT volunteer_id),
		       MAX(created_at)
		FROM ` + pq.QuoteIdentifier(schemaOf(table)) + `.` + pq.QuoteIdentifier(nameOf(table)) + `
		WHERE cardinality($1::text[]) = 0 OR precinct_id = ANY($1)
		GROUP BY precinct_id
		ORDER BY precinct_id`
}

func query(ctx context.Context, conn *sql.DB, table string, ids []string) ([]Row, error) {
	rs, err := conn.QueryContext(ctx, coverageQuery(table), pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Row
	for rs.Next() {
		var r Row
		if err := rs.Scan(&r.PrecinctID, &r.Notes, &r.Addresses, &r.NotHome, &r.Volunteers, &r.LastNote); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

func render(w io.Writer, rows []Row) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRECINCT\tNOTES\tADDRESSES\tNOT HOME\tVOLUNTEERS\tLAST NOTE")
	var total Row
	for _, r := range rows {
		last := "-"
		if r.LastNote.Valid {
			last = r.LastNote.Time.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", r.PrecinctID, r.Notes, r.Addresses, r.NotHome, r.Volunteers, last)
		total.Notes += r.Notes
		total.Addresses += r.Addresses
		total.NotHome += r.NotHome
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t\t\n", total.Notes, total.Addresses, total.NotHome)
	tw.Flush()
}

func splitIDs(s string) []string {
	ids := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func schemaOf(table string) string {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i]
	}
	return "public"
}

func nameOf(table string) string {
	return table[strings.IndexByte(table, '.')+1:]
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
