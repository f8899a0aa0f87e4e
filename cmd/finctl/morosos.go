package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
)

func newMorososCmd() *cobra.Command {
	var pdfPath string
	var threshold int

	cmd := &cobra.Command{
		Use:   "morosos",
		Short: "Reporte de morosos (tabla en consola o PDF)",
		Example: `  finctl morosos
  finctl morosos --umbral 3 --pdf morosos.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, _, err := connect(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			app.StartStore(ctx)

			if pdfPath != "" {
				data, _, err := app.Reports.MorosoReportPDF(ctx, threshold)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
					return fmt.Errorf("escribir %s: %w", pdfPath, err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "reporte escrito en %s (%d bytes)\n", pdfPath, len(data))
				return err
			}

			rep, err := app.Collections.Report(ctx, threshold)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "ruta del PDF a generar")
	cmd.Flags().IntVar(&threshold, "umbral", 0, "cuotas vencidas para considerar moroso; 0 usa MOROSO_THRESHOLD")
	return cmd
}

func printReport(w io.Writer, rep *collections.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, tier := range []collections.Tier{rep.Critical, rep.Moroso} {
		fmt.Fprintf(tw, "%s (%d)\n", tier.Title, len(tier.Items))
		fmt.Fprintln(tw, "N°\tCliente\tTeléfono\tVencidas\tMonto vencido")
		for _, it := range tier.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ControlNumber, it.Customer.Name, it.Customer.Phone,
				strconv.Itoa(it.Summary.OverdueCount), it.Summary.OverdueAmount.StringFixed(2))
		}
		fmt.Fprintf(tw, "\tTotal\t\t\t%s\n\n", tier.TotalAmount.StringFixed(2))
	}
	st := rep.Stats
	fmt.Fprintf(tw, "Umbral: %d\tCuotas vencidas: %d\tClientes afectados: %d\tMonto vencido: %s\n",
		rep.Threshold, st.TotalOverdueInstallments, st.AffectedCustomers, st.TotalOverdueAmount.StringFixed(2))
	return tw.Flush()
}
