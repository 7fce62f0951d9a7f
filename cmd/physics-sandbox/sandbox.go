package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/detphys/engine"
	"github.com/lixenwraith/detphys/physics"
	"github.com/lixenwraith/detphys/vmath"
)

// World units per terminal cell; rows are twice as tall as columns are wide
const (
	unitsPerCol = 8
	unitsPerRow = 16
	hudRows     = 2
	kickForce   = 4000
	frameTime   = 16 * time.Millisecond
)

var (
	styleBall   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleCrate  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleStatic = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

// Sandbox draws an engine's world into a tcell screen and maps keys onto forces
type Sandbox struct {
	screen tcell.Screen
	cfg    engine.Config
	eng    *engine.Engine
	seed   uint64
	balls  int

	width, height int
	paused        bool
	kick          vmath.Vec2
	spawned       int
}

func NewSandbox(screen tcell.Screen, cfg engine.Config, balls int, seed uint64) (*Sandbox, error) {
	s := &Sandbox{screen: screen, cfg: cfg, balls: balls, seed: seed}
	s.width, s.height = screen.Size()
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild replaces the engine and repopulates the scene for the current screen size
func (s *Sandbox) rebuild() error {
	eng, err := engine.New(s.cfg, nil)
	if err != nil {
		return err
	}
	eng.OnFixedUpdate = s.applyKick
	s.eng = eng
	s.spawned = 0
	populate(eng.World(), s.width, s.height-hudRows, s.balls, s.seed)
	log.Printf("sandbox: scene built (%dx%d cells, %d bodies, backend=%s)",
		s.width, s.height, eng.World().BodyCount(), eng.Backend().Name())
	return nil
}

// applyKick spends the queued kick on the first fixed update after the key press
func (s *Sandbox) applyKick(w *physics.World, tick uint64) {
	if s.kick == (vmath.Vec2{}) {
		return
	}
	for i := 0; i < w.BodyCount(); i++ {
		b, _ := w.Body(i)
		if b.IsStatic() {
			continue
		}
		_ = w.ApplyForce(i, s.kick.Scale(b.Mass))
	}
	s.kick = vmath.Vec2{}
}

func cellToWorld(col, row int) vmath.Vec2 {
	return vmath.V2Int(col*unitsPerCol+unitsPerCol/2, row*unitsPerRow+unitsPerRow/2)
}

func worldToCell(p vmath.Vec2) (col, row int) {
	return floorDiv(p.X.Int(), unitsPerCol), floorDiv(p.Y.Int(), unitsPerRow)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// populate fills a cols x rows arena with a floor, side walls, two ledges and seeded bodies
func populate(w *physics.World, cols, rows, balls int, seed uint64) {
	wUnits := cols * unitsPerCol
	hUnits := rows * unitsPerRow

	addStatic := func(center, half vmath.Vec2) {
		b := physics.NewStaticBody(center)
		b.Collider = physics.BoxCollider(half)
		w.AddBody(b)
	}
	addStatic(vmath.V2Int(wUnits/2, hUnits-unitsPerRow/2), vmath.V2Int(wUnits/2, unitsPerRow/2))
	addStatic(vmath.V2Int(unitsPerCol/2, hUnits/2), vmath.V2Int(unitsPerCol/2, hUnits/2))
	addStatic(vmath.V2Int(wUnits-unitsPerCol/2, hUnits/2), vmath.V2Int(unitsPerCol/2, hUnits/2))
	addStatic(vmath.V2Int(wUnits/4, hUnits*2/3), vmath.V2Int(wUnits/8, unitsPerRow/4))
	addStatic(vmath.V2Int(wUnits*3/4, hUnits/2), vmath.V2Int(wUnits/8, unitsPerRow/4))

	rng := vmath.NewFastRand(seed)
	lo := vmath.V2Int(2*unitsPerCol, unitsPerRow)
	hi := vmath.V2Int(max(wUnits-2*unitsPerCol, 2*unitsPerCol+1), max(hUnits/3, unitsPerRow+1))
	for i := 0; i < balls; i++ {
		b := physics.NewBody(rng.Vec2In(lo, hi), vmath.FromInt(1+rng.Intn(3)))
		b.Velocity = rng.Vec2In(vmath.V2Int(-60, -20), vmath.V2Int(60, 20))
		b.Restitution = vmath.FromRatio(1+rng.Intn(8), 10)
		if i%5 == 0 {
			b.Collider = physics.BoxCollider(vmath.V2Int(unitsPerCol/2, unitsPerCol/2))
		} else {
			b.Collider = physics.CircleCollider(vmath.FromInt(unitsPerCol / 2))
		}
		w.AddBody(b)
	}
}

// spawn drops one ball at the top centre with a little sideways drift
func (s *Sandbox) spawn() {
	s.spawned++
	b := physics.NewBody(cellToWorld(s.width/2, 1), vmath.One)
	b.Collider = physics.CircleCollider(vmath.FromInt(unitsPerCol / 2))
	b.Velocity = vmath.V2Int((s.spawned%7-3)*20, 0)
	s.eng.World().AddBody(b)
}

// handleInput returns false when the sandbox should exit
func (s *Sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			s.kick = s.kick.Add(vmath.Left.Scale(vmath.FromInt(kickForce)))
		case tcell.KeyRight:
			s.kick = s.kick.Add(vmath.Right.Scale(vmath.FromInt(kickForce)))
		case tcell.KeyUp:
			s.kick = s.kick.Add(vmath.Up.Scale(vmath.FromInt(2 * kickForce)))
		case tcell.KeyDown:
			s.kick = s.kick.Add(vmath.Down.Scale(vmath.FromInt(kickForce)))
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				s.spawn()
			case 'p':
				s.paused = !s.paused
				if !s.paused {
					// Time spent paused is not simulated
					s.eng.Scheduler().Reset()
				}
			case 'r':
				if err := s.rebuild(); err != nil {
					log.Printf("sandbox: rebuild failed: %v", err)
				}
			}
		}

	case *tcell.EventResize:
		s.screen.Sync()
		s.width, s.height = s.screen.Size()
		if err := s.rebuild(); err != nil {
			log.Printf("sandbox: rebuild after resize failed: %v", err)
		}
	}
	return true
}

func (s *Sandbox) update() {
	if s.paused {
		return
	}
	s.eng.RunFrame()
}

func (s *Sandbox) draw() {
	s.screen.Clear()
	for _, b := range s.eng.World().Snapshot() {
		s.drawBody(&b)
	}
	s.drawHUD()
	s.screen.Show()
}

func (s *Sandbox) drawBody(b *physics.Body) {
	col, row := worldToCell(b.Position)
	row += hudRows
	switch {
	case b.Collider.Kind == physics.ColliderBox:
		style := styleCrate
		ch := '▪'
		if b.IsStatic() {
			style, ch = styleStatic, '█'
		}
		hc := max(b.Collider.HalfExtents.X.Int()/unitsPerCol, 0)
		hr := max(b.Collider.HalfExtents.Y.Int()/unitsPerRow, 0)
		for y := row - hr; y <= row+hr; y++ {
			for x := col - hc; x <= col+hc; x++ {
				s.setCell(x, y, ch, style)
			}
		}
	default:
		s.setCell(col, row, '●', styleBall)
	}
}

func (s *Sandbox) setCell(x, y int, ch rune, style tcell.Style) {
	if x < 0 || x >= s.width || y < hudRows || y >= s.height {
		return
	}
	s.screen.SetContent(x, y, ch, nil, style)
}

func (s *Sandbox) drawHUD() {
	line := s.hudLine()
	for x := 0; x < s.width; x++ {
		ch := ' '
		if x < len(line) {
			ch = rune(line[x])
		}
		s.screen.SetContent(x, 0, ch, nil, styleHUD)
	}
	help := "space spawn  arrows kick  p pause  r reset  q quit"
	for x, ch := range help {
		if x >= s.width {
			break
		}
		s.screen.SetContent(x, 1, ch, nil, tcell.StyleDefault)
	}
}

func (s *Sandbox) hudLine() string {
	m := s.eng.Metrics()
	state := "run"
	if s.paused {
		state = "paused"
	}
	return fmt.Sprintf(" %s | %s | bodies %d | contacts %d | tick %d | step %.3fms | dropped %v",
		state,
		m.Strings.Get("engine.backend").Load(),
		m.Ints.Get("physics.bodies").Load(),
		m.Ints.Get("physics.contacts").Load(),
		m.Ints.Get("engine.ticks").Load(),
		m.Floats.Get("physics.step_ms").Get(),
		time.Duration(m.Ints.Get("engine.dropped_ns").Load()),
	)
}

func (s *Sandbox) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
		case <-ticker.C:
			s.update()
			s.draw()
		}
	}
}
