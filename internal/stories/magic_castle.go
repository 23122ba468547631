package stories

var magicCastleTheme = &Theme{
	ID:            "magic_castle",
	TitleTemplate: "{name} and the Magic Castle",
	Description:   "A royal adventure through a castle in the clouds",
	CoverPrompt:   "Book cover composition. The child named {name} stands before a shimmering castle floating among soft pink clouds, golden towers catching the light, a red carpet of rose petals leading to the gates, gentle sparkles drifting through the air.",
	Pages: []Page{
		{
			Number:    1,
			Scene:     "The mysterious invitation",
			Prompt:    "Warm indoor morning shot. The child named {name} sits at a breakfast table holding a golden envelope sealed with a crown stamp. Sunlight catches the glittering paper.",
			StoryText: "It arrived with the morning post: a golden envelope addressed to {name}, sealed with a royal crown. Inside, in swirling letters, it read: 'You are invited to the Magic Castle. Come at once!'",
		},
		{
			Number:    2,
			Scene:     "The cloud stairway",
			Prompt:    "Wide outdoor shot. A staircase made of fluffy white clouds rises from a garden into the sky. The child named {name} steps onto the first cloud stair, arms out for balance, smiling nervously.",
			StoryText: "In the garden, a stairway of clouds reached all the way up into the blue. {name} took a deep breath and stepped onto the first fluffy stair. It was soft and springy, like walking on marshmallows!",
		},
		{
			Number:    3,
			Scene:     "First sight of the castle",
			Prompt:    "Epic wide shot from the clouds. A magnificent castle with golden towers floats on a sea of pink clouds. The child named {name} stands on the cloud path, gazing up at the gates in wonder.",
			StoryText: "At the top of the stairway, the Magic Castle rose out of a sea of pink clouds, its golden towers sparkling in the sun. 'It's really real,' {name} whispered, as the great gates slowly swung open.",
		},
		{
			Number:    4,
			Scene:     "Meeting the royal dragon",
			Prompt:    "Medium shot in a castle courtyard. A small friendly dragon with emerald scales and big gentle eyes bows to the child named {name}, who giggles and bows back.",
			StoryText: "In the courtyard waited Ember, the royal dragon, no bigger than a pony and twice as friendly. 'Welcome, {name}!' Ember rumbled with a smoky little bow. 'The castle has been waiting for you.'",
		},
		{
			Number:    5,
			Scene:     "The hall of floating candles",
			Prompt:    "Interior shot of a grand castle hall lit by hundreds of floating candles. The child named {name} walks down the center aisle beside the small dragon, looking up in amazement.",
			StoryText: "Inside the great hall, a thousand candles floated in the air like tiny stars. They bowed and bobbed as {name} walked past, lighting the way to the throne room with a warm golden glow.",
		},
		{
			Number:    6,
			Scene:     "The empty throne",
			Prompt:    "Interior shot of a throne room. A grand golden throne sits empty beneath a stained-glass window. The child named {name} reads an inscription carved into the armrest, the dragon peering over a shoulder.",
			StoryText: "The throne room was silent and still, and the great golden throne stood empty. Carved into the armrest were the words: 'Only a truly kind heart may wake the castle.' {name} wondered what that could mean.",
		},
		{
			Number:    7,
			Scene:     "The crying cloud",
			Prompt:    "Shot by a tall castle window. A small grey raincloud hovers in the corner, drizzling sadly. The child named {name} reaches up gently toward it with a kind smile.",
			StoryText: "In the corner of the room, a little grey cloud was crying quiet raindrops. 'Don't be sad,' said {name} gently. 'Would you like to be my friend?' The cloud sniffled, then slowly began to glow.",
		},
		{
			Number:    8,
			Scene:     "The castle awakens",
			Prompt:    "Dynamic interior shot. Light spreads through the castle as tapestries ripple, suits of armor wave, and the little cloud turns white and fluffy. The child named {name} spins around in delight.",
			StoryText: "The moment {name} spoke those kind words, light rushed through every hallway. Tapestries fluttered, armor clanked a cheerful hello, and the little cloud turned white and fluffy as fresh snow. The castle was awake!",
		},
		{
			Number:    9,
			Scene:     "The coronation",
			Prompt:    "Ceremonial interior shot. The small dragon places a delicate golden crown on the head of the child named {name}, who stands before the throne as floating candles swirl overhead in celebration.",
			StoryText: "'A kind heart has woken the castle,' announced Ember, placing a tiny golden crown on {name}'s head. 'All hail {name}, Guardian of the Magic Castle!' The candles swirled and danced in celebration.",
		},
		{
			Number:    10,
			Scene:     "Goodnight, castle",
			Prompt:    "Sunset shot on a castle balcony. The child named {name}, wearing the small crown, waves from the balcony as the cloud stairway glows in the golden light. The dragon and the white cloud wave goodbye.",
			StoryText: "As the sun set over the sea of clouds, {name} promised to visit again soon. The castle lights twinkled goodnight, and the cloud stairway carried its new guardian gently home. The End.",
		},
	},
}
