package domain

const placeholderImage = "/placeholder.svg"

// Seed returns the default content written the first time the store is used.
// Every call returns a fresh copy.
func Seed() Aggregate {
	return Aggregate{
		Slides: []Slide{
			{ID: 1, Image: placeholderImage, Subtitle: "Parque Zonal", Title: "CHAVIN DE HUANTAR", Description: "Ven y descubre algunas de las 7 maravillas del mundo mientras te maravillas con la fauna que habita nuestro parque.", Active: true},
			{ID: 2, Image: placeholderImage, Subtitle: "Estatuas Famosas", Title: "FOTOS EPICAS", Description: "¡Conoce a nuestros personajes favoritos! Prepárate para vivir momentos únicos y llevarte los mejores recuerdos.", Active: true},
			{ID: 3, Image: placeholderImage, Subtitle: "Centro Deportivo", Title: "RECREACIÓN FAMILIAR", Description: "Demuestra tus habilidades en nuestra amplia loza deportiva, perfecta para partidos de fútbol, vóley y más.", Active: true},
			{ID: 4, Image: placeholderImage, Subtitle: "Piscina Refrescante", Title: "UN CHAPUZÓN DE ALEGRÍA", Description: "Sumérgete en la diversión. Nuestra piscina es el lugar perfecto para refrescarte y pasar momentos inolvidables", Active: true},
			{ID: 5, Image: placeholderImage, Subtitle: "Paseos en Botes", Title: "NAVEGA Y RELÁJATE", Description: "Relájate y navega en nuestros botes a pedal. Una experiencia tranquila rodeada de naturaleza.", Active: true},
		},
		Wonders: []Wonder{
			{ID: 1, Name: "Cristo Redentor", Image: placeholderImage, Description: "Réplica del", FullDescription: "Contempla esta icónica estatua que se alza sobre la ciudad de Río de Janeiro. El Cristo Redentor es símbolo de fe y acogida, reconocido mundialmente como una de las nuevas maravillas del mundo.", Active: true},
			{ID: 2, Name: "Machu Picchu", Image: placeholderImage, Description: "Réplica de", FullDescription: "Explora la ciudadela inca más famosa del mundo, suspendida entre las montañas de los Andes. Machu Picchu representa la cumbre de la ingeniería y espiritualidad de la civilización inca.", Active: true},
			{ID: 3, Name: "Gran Muralla China", Image: placeholderImage, Description: "Réplica de la", FullDescription: "Recorre una sección de la fortificación más larga del mundo. La Gran Muralla China es testimonio del ingenio humano y la determinación de proteger una civilización milenaria.", Active: true},
			{ID: 4, Name: "Las Pirámides de Guiza", Image: placeholderImage, Description: "Réplicas de", FullDescription: "Explora las majestuosas Pirámides de Guiza, construidas hace más de 4,500 años como tumbas para los faraones. Estas maravillas del mundo antiguo siguen desafiando al tiempo y revelando el misterio de una civilización que dominó la ingeniería, la astronomía y el arte con una precisión asombrosa.", Active: true},
		},
		Animals: []Animal{
			{ID: 1, Name: "León Africano", ScientificName: "Panthera leo", Description: "El rey de la sabana, conocido por su melena majestuosa y rugido poderoso que puede escucharse a kilómetros de distancia.", Image: placeholderImage, Active: true},
			{ID: 2, Name: "Jaguar", ScientificName: "Panthera onca", Description: "El felino más grande de América, excelente nadador y con la mordida más poderosa entre todos los grandes felinos.", Image: placeholderImage, Active: true},
			{ID: 3, Name: "Oso de Anteojos", ScientificName: "Tremarctos ornatus", Description: "Único oso nativo de Sudamérica, habita en los bosques andinos y es conocido por las marcas alrededor de sus ojos.", Image: placeholderImage, Active: true},
			{ID: 4, Name: "Cóndor Andino", ScientificName: "Vultur gryphus", Description: "Ave nacional del Perú, una de las aves voladoras más grandes del mundo con una envergadura de hasta 3 metros.", Image: placeholderImage, Active: true},
			{ID: 5, Name: "Vicuña", ScientificName: "Vicugna vicugna", Description: "Camélido sudamericano que produce la fibra más fina del mundo, símbolo de la fauna andina peruana.", Image: placeholderImage, Active: true},
			{ID: 6, Name: "Mono Choro", ScientificName: "Lagothrix lagotricha", Description: "Primate endémico de la Amazonía peruana, conocido por su cola prensil y comportamiento social complejo.", Image: placeholderImage, Active: true},
		},
		PriceOptions: []PriceOption{
			{ID: 1, Price: 10, Category: "Adultos", AgeRange: "18 a 60 años", Description: "Acceso completo al parque y zoológico", Color: "#054986", Active: true},
			{ID: 2, Price: 5, Category: "Niños", AgeRange: "4 a 17 años", Description: "Entrada especial para menores", Color: "#054986", Active: true},
			{ID: 3, Price: 5, Category: "Tercera Edad", AgeRange: "60+ años", Description: "Tarifa preferencial para adultos mayores", Color: "#054986", Active: true},
			{ID: 4, Price: 5, Category: "Discapacitados", AgeRange: "18+ años", Description: "Descuento especial para discapacitados", Color: "#00864b", Active: true},
			{ID: 5, Price: 5, Category: "Piscina Adulto", AgeRange: "18 a 60 años", Description: "Entrada para la piscina de adultos", Color: "#054986", Active: true},
			{ID: 6, Price: 5, Category: "Piscina Niños", AgeRange: "4 a 17 años", Description: "Entrada para la piscina de niños", Color: "#054986", Active: true},
		},
		GroupImages: []GroupImage{
			{ID: 1, Image: placeholderImage, Alt: "Grupo disfrutando en el parque", Caption: "Diversión familiar garantizada", Active: true},
			{ID: 2, Image: placeholderImage, Alt: "Actividades en el zoológico", Caption: "Experiencias educativas únicas", Active: true},
			{ID: 3, Image: placeholderImage, Alt: "Zonas deportivas del parque", Caption: "Espacios deportivos amplios", Active: true},
			{ID: 4, Image: placeholderImage, Alt: "Área de picnic grupal", Caption: "Perfectos para celebraciones", Active: true},
		},
		Map: MapConfig{
			ID:     1,
			Image:  "https://images.unsplash.com/photo-1553028826-f4804a6dba3b?auto=format&fit=crop&w=1200&q=80",
			Active: true,
		},
	}
}
