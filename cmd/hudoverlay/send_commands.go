package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hudoverlay/internal/fonts"
	"hudoverlay/internal/ipc"
	"hudoverlay/internal/protocol"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var owner string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send an overlay message through the daemon",
	}
	sendCmd.PersistentFlags().StringVar(&owner, "owner", "cli", "Owner identity used for the message id prefix and font overrides")

	sendCmd.AddCommand(
		newSendTextCommand(ctx, &owner),
		newSendShapeCommand(ctx, &owner),
		newSendVectorCommand(ctx, &owner),
		newSendSvgCommand(ctx, &owner),
		newSendCommandCommand(ctx, &owner),
		newSendRawCommand(ctx, &owner),
	)
	return sendCmd
}

func sendAndReport(cmd *cobra.Command, ctx *commandContext, fn func(*ipc.Client) (*ipc.SendResponse, error)) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := fn(client)
		if err != nil {
			return err
		}
		if resp == nil || !resp.Queued {
			return fmt.Errorf("message was not queued")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued for %s (token %s)\n", resp.Owner, resp.Token)
		return nil
	})
}

func newSendTextCommand(ctx *commandContext, owner *string) *cobra.Command {
	var msg protocol.Text
	cmd := &cobra.Command{
		Use:   "text [text]",
		Short: "Draw text, or erase it when no text and color are given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				msg.Text = args[0]
			}
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendText(*owner, msg)
			})
		},
	}
	cmd.Flags().StringVar(&msg.ID, "id", "", "Message id within the owner namespace")
	cmd.Flags().StringVar(&msg.Color, "color", "", "Palette color name or #RRGGBB")
	cmd.Flags().IntVar(&msg.X, "x", 0, "Horizontal position")
	cmd.Flags().IntVar(&msg.Y, "y", 0, "Vertical position")
	cmd.Flags().IntVar(&msg.TTL, "ttl", 0, "Seconds before the renderer removes the text")
	cmd.Flags().StringVar(&msg.Size, "size", string(fonts.Normal), "Size class: normal or large")
	return cmd
}

func newSendShapeCommand(ctx *commandContext, owner *string) *cobra.Command {
	var shape protocol.Shape
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Draw a rectangle, or erase a shape when no shape and color are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendShape(*owner, shape)
			})
		},
	}
	cmd.Flags().StringVar(&shape.ID, "id", "", "Shape id within the owner namespace")
	cmd.Flags().StringVar(&shape.Shape, "shape", "", "Shape kind (rect)")
	cmd.Flags().StringVar(&shape.Color, "color", "", "Outline color")
	cmd.Flags().StringVar(&shape.Fill, "fill", "", "Fill color; defaults to the outline color")
	cmd.Flags().IntVar(&shape.X, "x", 0, "Left edge")
	cmd.Flags().IntVar(&shape.Y, "y", 0, "Top edge")
	cmd.Flags().IntVar(&shape.W, "w", 0, "Width")
	cmd.Flags().IntVar(&shape.H, "h", 0, "Height")
	cmd.Flags().IntVar(&shape.TTL, "ttl", 0, "Seconds before the renderer removes the shape")
	return cmd
}

func newSendVectorCommand(ctx *commandContext, owner *string) *cobra.Command {
	req := ipc.VectorRequest{}
	var points []string
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Draw a polyline through the given points",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseVectorPoints(points)
			if err != nil {
				return err
			}
			req.Owner = *owner
			req.Points = parsed
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendVector(req)
			})
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "Vector id within the owner namespace")
	cmd.Flags().StringVar(&req.Color, "color", "", "Line color")
	cmd.Flags().IntVar(&req.TTL, "ttl", 0, "Seconds before the renderer removes the vector")
	cmd.Flags().StringArrayVarP(&points, "point", "p", nil, "Point as x,y[,marker[,color[,text]]]; repeat for each vertex")
	return cmd
}

// parseVectorPoints reads "x,y[,marker[,color[,text]]]" values. The label is
// everything after the fourth comma so it may itself contain commas.
func parseVectorPoints(values []string) ([]protocol.VectorPoint, error) {
	points := make([]protocol.VectorPoint, 0, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, ",", 5)
		if len(parts) < 2 {
			return nil, fmt.Errorf("point %q: expected x,y", value)
		}
		x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("point %q: x: %w", value, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("point %q: y: %w", value, err)
		}
		point := protocol.VectorPoint{X: x, Y: y}
		if len(parts) > 2 {
			point.Marker = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			point.Color = strings.TrimSpace(parts[3])
		}
		if len(parts) > 4 {
			point.Text = parts[4]
		}
		points = append(points, point)
	}
	return points, nil
}

func newSendSvgCommand(ctx *commandContext, owner *string) *cobra.Command {
	var svg protocol.Svg
	var file string
	var vector string
	cmd := &cobra.Command{
		Use:   "svg [document]",
		Short: "Draw an SVG document given inline or with --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read svg: %w", err)
				}
				svg.Svg = string(data)
			case len(args) == 1:
				svg.Svg = args[0]
			}
			if strings.TrimSpace(vector) != "" {
				if !json.Valid([]byte(vector)) {
					return fmt.Errorf("--vector must be valid JSON")
				}
				svg.Vector = json.RawMessage(vector)
			}
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendSvg(*owner, svg)
			})
		},
	}
	cmd.Flags().StringVar(&svg.ID, "id", "", "SVG id within the owner namespace")
	cmd.Flags().StringVar(&file, "file", "", "Read the SVG document from a file")
	cmd.Flags().StringVar(&svg.CSS, "css", "", "Stylesheet applied to the document")
	cmd.Flags().StringVar(&svg.FontFile, "font-file", "", "Font file used for document text")
	cmd.Flags().StringVar(&vector, "vector", "", "Vector overlay as JSON")
	cmd.Flags().IntVar(&svg.X, "x", 0, "Horizontal position")
	cmd.Flags().IntVar(&svg.Y, "y", 0, "Vertical position")
	cmd.Flags().IntVar(&svg.TTL, "ttl", 0, "Seconds before the renderer removes the document")
	return cmd
}

func newSendCommandCommand(ctx *commandContext, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "command <name>",
		Short: "Forward a renderer command such as exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendCommand(*owner, args[0])
			})
		},
	}
}

func newSendRawCommand(ctx *commandContext, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <json>",
		Short: "Forward a caller-built JSON object unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var msg protocol.Raw
			if err := json.Unmarshal([]byte(args[0]), &msg); err != nil {
				return fmt.Errorf("parse raw message: %w", err)
			}
			return sendAndReport(cmd, ctx, func(c *ipc.Client) (*ipc.SendResponse, error) {
				return c.SendRaw(*owner, msg)
			})
		},
	}
}
