// Command bloomgraph runs a bloom node in a small render graph and prints
// the pyramid it builds for each viewport size.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/bloom"
	"github.com/gogpu/bloom/internal/shader"
	"github.com/gogpu/bloom/render"
	"github.com/gogpu/bloom/rendergraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func main() {
	var (
		backend = flag.String("backend", "noop", "HAL backend: noop or vulkan")
		sizes   = flag.String("sizes", "1920x1080,256x256,0x0,256x256", "comma-separated viewport sizes, one per frame batch")
		frames  = flag.Int("frames", 2, "frames rendered per size")
		config  = flag.String("config", "", "TOML or YAML configuration file")
		compile = flag.Bool("compile", false, "compile every shader variant to SPIR-V and print its size")
		verbose = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Parse()

	if *verbose {
		bloom.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	viewports, err := parseSizes(*sizes)
	if err != nil {
		log.Fatalf("Invalid -sizes: %v", err)
	}

	var opts []bloom.Option
	if *config != "" {
		cfg, err := bloom.LoadConfig(*config)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = cfg.Options()
	}

	if *compile {
		if err := compileVariants(); err != nil {
			log.Fatalf("Shader compilation failed: %v", err)
		}
	}

	device, closeDevice, err := openDevice(*backend)
	if err != nil {
		log.Fatalf("Failed to open %s device: %v", *backend, err)
	}
	defer closeDevice()

	if err := run(device, viewports, *frames, opts); err != nil {
		log.Fatalf("Render failed: %v", err)
	}
}

type viewport struct{ w, h uint32 }

func parseSizes(s string) ([]viewport, error) {
	var out []viewport
	for _, field := range strings.Split(s, ",") {
		ws, hs, ok := strings.Cut(strings.TrimSpace(field), "x")
		if !ok {
			return nil, fmt.Errorf("%q is not WIDTHxHEIGHT", field)
		}
		w, err := strconv.ParseUint(ws, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", field, err)
		}
		h, err := strconv.ParseUint(hs, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", field, err)
		}
		out = append(out, viewport{uint32(w), uint32(h)})
	}
	return out, nil
}

// openDevice creates a standalone device on the named backend.
func openDevice(name string) (*render.Device, func(), error) {
	var api hal.Backend
	switch name {
	case "noop":
		api = noop.API{}
	case "vulkan":
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, nil, fmt.Errorf("vulkan backend not available")
		}
		api = b
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open device: %w", err)
	}
	device, err := render.NewDevice(openDev.Device, openDev.Queue, gputypes.DefaultLimits())
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	log.Printf("Using adapter %q (%s)", selected.Info.Name, name)

	closeDevice := func() {
		if err := device.WaitIdle(); err != nil {
			log.Printf("Wait idle: %v", err)
		}
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return device, closeDevice, nil
}

func run(device *render.Device, viewports []viewport, frames int, opts []bloom.Option) error {
	pp, err := bloom.New(device, opts...)
	if err != nil {
		return err
	}
	defer pp.Destroy()

	g := rendergraph.New()
	scene, err := rendergraph.NewTextureNode("scene", device, rendergraph.KeyViewportTexture, gputypes.TextureFormatRGBA16Float)
	if err != nil {
		return err
	}
	defer scene.Destroy()
	scene.ClearColor = gputypes.Color{R: 4, G: 2, B: 1, A: 1}
	if err := g.Register(scene); err != nil {
		return err
	}
	node, err := pp.CreateNode(g, "bloom")
	if err != nil {
		return err
	}
	if err := g.Connect(rendergraph.KeyViewportTexture, scene, node); err != nil {
		return err
	}

	for _, vp := range viewports {
		scene.SetViewport(vp.w, vp.h)
		before := device.Stats()
		for range frames {
			if err := g.Execute(); err != nil {
				return err
			}
		}
		report(vp, node, device.Stats().Sub(before))
	}
	return nil
}

func report(vp viewport, node *bloom.Node, delta render.Stats) {
	fmt.Printf("%dx%d: ", vp.w, vp.h)
	if !node.Valid() || delta.Draws == 0 {
		fmt.Printf("no pyramid, %d draws\n", delta.Draws)
		return
	}
	fmt.Printf("%d levels, %d draws/frame, %d draws total, %d bytes flushed, last frame %v\n",
		node.Levels(), node.LastFrame().Draws, delta.Draws, delta.BytesFlushed, node.LastFrame().Duration)
	weights := node.Weights()
	for i := range node.Levels() {
		w, h := node.LevelSize(i)
		fmt.Printf("  level %2d  %5dx%-5d  weight %.4f\n", i, w, h, weights[i])
	}
	for _, step := range node.PassSequence() {
		fmt.Printf("  %-10s %d -> %d  %s\n", step.Phase, step.Source, step.Target, step.Variant)
	}
}

func compileVariants() error {
	lowpass, err := shader.LowpassKernel()
	if err != nil {
		return err
	}
	lib := shader.Embedded()
	for v := range shader.Variant(shader.VariantCount) {
		words, err := shader.Compile(lib.Source(v, lowpass))
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		fmt.Printf("%-24s %6d SPIR-V words\n", v, len(words))
	}
	return nil
}
